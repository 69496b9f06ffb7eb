// api/audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	RecordOutcome(ctx context.Context, record OperationRecord) error
	QueryRecords(ctx context.Context, from, to time.Time, principal, kind string) ([]OperationRecord, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RecordOutcome(ctx context.Context, record OperationRecord) error {
	return s.repo.RecordOutcome(ctx, record)
}

func (s *service) QueryRecords(ctx context.Context, from, to time.Time, principal, kind string) ([]OperationRecord, error) {
	return s.repo.QueryRecords(ctx, from, to, principal, kind)
}
