// test/mock/boundary.go
package mock

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/ledgerdash/ledgerdash/api/chain"
)

// MockBoundary is a mock implementation of chain.Boundary
type MockBoundary struct {
	mock.Mock
}

func (m *MockBoundary) Read(ctx context.Context, q chain.Query) (json.RawMessage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockBoundary) Submit(ctx context.Context, s chain.Submission) (chain.Handle, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(chain.Handle), args.Error(1)
}

func (m *MockBoundary) Poll(ctx context.Context, h chain.Handle) (chain.Receipt, error) {
	args := m.Called(ctx, h)
	return args.Get(0).(chain.Receipt), args.Error(1)
}
