// api/chain/boundary.go
package chain

import (
	"context"
	"encoding/json"
)

// Query kinds the dashboard issues against the ledger gateway.
const (
	QueryCapabilityToken = "capabilityToken"
	QueryHasCapability   = "hasCapability"
	QueryPaused          = "paused"
	QueryAttendance      = "attendance"
	QueryProgress        = "progress"
)

// Operation kinds for state-changing submissions.
const (
	OpRecoverStudent = "recover-student"
	OpRemoveStudent  = "remove-student"
	OpSetFee         = "set-fee"
	OpWithdraw       = "withdraw"
)

// Query is a stateless read request.
type Query struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// Submission is a state-changing request. The caller must ensure it is
// submitted at most once per logical user intent; the boundary does not
// deduplicate.
type Submission struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// Handle correlates a submission with its eventual receipt.
type Handle string

type ReceiptState string

const (
	ReceiptPending   ReceiptState = "pending"
	ReceiptConfirmed ReceiptState = "confirmed"
	ReceiptFailed    ReceiptState = "failed"
)

// Receipt is the polled status of a submitted operation. Reason is only set
// when State is ReceiptFailed.
type Receipt struct {
	State  ReceiptState `json:"state"`
	Reason string       `json:"reason,omitempty"`
}

// Boundary is the opaque read/submit/poll interface to the remote ledger.
// Read may be called any number of times; Poll is idempotent; Submit is not.
type Boundary interface {
	Read(ctx context.Context, q Query) (json.RawMessage, error)
	Submit(ctx context.Context, s Submission) (Handle, error)
	Poll(ctx context.Context, h Handle) (Receipt, error)
}
