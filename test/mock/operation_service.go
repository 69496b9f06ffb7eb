// api/test/mock/operation_service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ledgerdash/ledgerdash/api/gate"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/operation"
)

// MockOperationService is a mock implementation of service.IOperationService
type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) RequestRecovery(ctx context.Context, principal model.Address, input model.RecoveryInput) error {
	args := m.Called(ctx, principal, input)
	return args.Error(0)
}

func (m *MockOperationService) RequestRemoval(ctx context.Context, principal model.Address, input model.RemovalInput) error {
	args := m.Called(ctx, principal, input)
	return args.Error(0)
}

func (m *MockOperationService) RequestFeeUpdate(ctx context.Context, principal model.Address, input model.FeeUpdateInput) error {
	args := m.Called(ctx, principal, input)
	return args.Error(0)
}

func (m *MockOperationService) RequestWithdrawal(ctx context.Context, principal model.Address, input model.WithdrawalInput) error {
	args := m.Called(ctx, principal, input)
	return args.Error(0)
}

func (m *MockOperationService) Confirm(ctx context.Context, kind string) error {
	args := m.Called(ctx, kind)
	return args.Error(0)
}

func (m *MockOperationService) Cancel(kind string) error {
	args := m.Called(kind)
	return args.Error(0)
}

func (m *MockOperationService) Status(kind string) (operation.Snapshot, error) {
	args := m.Called(kind)
	return args.Get(0).(operation.Snapshot), args.Error(1)
}

func (m *MockOperationService) History(kind string) ([]operation.Record, error) {
	args := m.Called(kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]operation.Record), args.Error(1)
}

func (m *MockOperationService) Preflight(ctx context.Context, principal model.Address, kind string) (gate.Decision, error) {
	args := m.Called(ctx, principal, kind)
	return args.Get(0).(gate.Decision), args.Error(1)
}

func (m *MockOperationService) RecentTargets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
