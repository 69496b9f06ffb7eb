// api/audit/memory.go
package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps operation records in memory. It backs tests and
// deployments that run without Elasticsearch.
type MemoryRepository struct {
	mu      sync.Mutex
	records []OperationRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) RecordOutcome(ctx context.Context, record OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *MemoryRepository) QueryRecords(ctx context.Context, from, to time.Time, principal, kind string) ([]OperationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []OperationRecord
	for _, record := range r.records {
		if record.Timestamp.Before(from) || record.Timestamp.After(to) {
			continue
		}
		if principal != "" && record.Principal != principal {
			continue
		}
		if kind != "" && record.Kind != kind {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}
