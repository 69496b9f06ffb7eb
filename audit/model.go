// api/audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// OperationRecord is the durable form of a terminal operation outcome.
// Records are immutable once written.
type OperationRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Principal string          `json:"principal"`
	Target    string          `json:"target,omitempty"`
	Outcome   string          `json:"outcome"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Error     string          `json:"error,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
}
