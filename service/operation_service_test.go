// api/service/operation_service_test.go
package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmock "github.com/stretchr/testify/mock"

	"github.com/ledgerdash/ledgerdash/api/audit"
	"github.com/ledgerdash/ledgerdash/api/chain"
	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/gate"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/operation"
	"github.com/ledgerdash/ledgerdash/api/service"
	"github.com/ledgerdash/ledgerdash/api/test/mock"
	"github.com/ledgerdash/ledgerdash/api/util"
)

const operator = model.Address("0xaabbccddeeff00112233445566778899aabbccdd")

// stubGateReads grants every capability on an unpaused system.
func stubGateReads(boundary *mock.MockBoundary) {
	boundary.On("Read", tmock.Anything, tmock.MatchedBy(func(q chain.Query) bool {
		return q.Kind == chain.QueryCapabilityToken
	})).Return(rawJSONValue(`"0x9f2df0fed2c77648de5860a4cc508cd0818c85b8"`), nil)
	boundary.On("Read", tmock.Anything, tmock.MatchedBy(func(q chain.Query) bool {
		return q.Kind == chain.QueryHasCapability
	})).Return(rawJSONValue(`true`), nil)
	boundary.On("Read", tmock.Anything, tmock.MatchedBy(func(q chain.Query) bool {
		return q.Kind == chain.QueryPaused
	})).Return(rawJSONValue(`false`), nil)
}

func rawJSONValue(s string) json.RawMessage {
	return json.RawMessage(s)
}

func newService(boundary chain.Boundary, repo audit.Repository, bus *util.EventBus) *service.OperationService {
	return service.NewOperationService(
		gate.New(boundary),
		boundary,
		util.NewValidationUtil(),
		audit.NewService(repo),
		util.NewNotificationService(),
		bus,
		service.OperationConfig{
			HistoryLimit: 5,
			PollInterval: time.Millisecond,
		},
	)
}

func TestOperationService(t *testing.T) {
	logger.InitLogger("../logging")
	defer logger.Sync()

	ctx := context.Background()

	t.Run("FeeUpdate_RecordedInAuditTrail", func(t *testing.T) {
		boundary := new(mock.MockBoundary)
		stubGateReads(boundary)
		boundary.On("Submit", tmock.Anything, tmock.MatchedBy(func(s chain.Submission) bool {
			return s.Kind == chain.OpSetFee
		})).Return(chain.Handle("0xfee1"), nil)
		boundary.On("Poll", tmock.Anything, chain.Handle("0xfee1")).Return(chain.Receipt{State: chain.ReceiptConfirmed}, nil)

		repo := audit.NewMemoryRepository()
		bus := util.NewEventBus()
		svc := newService(boundary, repo, bus)

		require.NoError(t, svc.RequestFeeUpdate(ctx, operator, model.FeeUpdateInput{AmountWei: 2500}))
		bus.Flush()

		records, err := repo.QueryRecords(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute), "", chain.OpSetFee)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, string(operation.StatusSucceeded), records[0].Outcome)
		assert.Equal(t, operator.String(), records[0].Principal)
	})

	t.Run("Removal_TwoStep", func(t *testing.T) {
		boundary := new(mock.MockBoundary)
		stubGateReads(boundary)
		boundary.On("Submit", tmock.Anything, tmock.Anything).Return(chain.Handle("0xrm1"), nil)
		boundary.On("Poll", tmock.Anything, chain.Handle("0xrm1")).Return(chain.Receipt{State: chain.ReceiptConfirmed}, nil)

		svc := newService(boundary, audit.NewMemoryRepository(), util.NewEventBus())

		input := model.RemovalInput{StudentID: student, Term: 1}
		require.NoError(t, svc.RequestRemoval(ctx, operator, input))

		snapshot, err := svc.Status(chain.OpRemoveStudent)
		require.NoError(t, err)
		assert.Equal(t, operation.StatusAwaitingConfirmation, snapshot.State)
		boundary.AssertNotCalled(t, "Submit", tmock.Anything, tmock.Anything)

		require.NoError(t, svc.Confirm(ctx, chain.OpRemoveStudent))

		snapshot, err = svc.Status(chain.OpRemoveStudent)
		require.NoError(t, err)
		assert.Equal(t, operation.StatusSucceeded, snapshot.LastOutcome)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		svc := newService(new(mock.MockBoundary), audit.NewMemoryRepository(), util.NewEventBus())

		assert.ErrorIs(t, svc.Confirm(ctx, "mint-diploma"), ledger_errors.ErrUnknownOperation)
		assert.ErrorIs(t, svc.Cancel("mint-diploma"), ledger_errors.ErrUnknownOperation)

		_, err := svc.Status("mint-diploma")
		assert.ErrorIs(t, err, ledger_errors.ErrUnknownOperation)
		_, err = svc.History("mint-diploma")
		assert.ErrorIs(t, err, ledger_errors.ErrUnknownOperation)
		_, err = svc.Preflight(ctx, operator, "mint-diploma")
		assert.ErrorIs(t, err, ledger_errors.ErrUnknownOperation)
	})

	t.Run("KindsIsolated", func(t *testing.T) {
		boundary := new(mock.MockBoundary)
		stubGateReads(boundary)

		svc := newService(boundary, audit.NewMemoryRepository(), util.NewEventBus())

		// Parking the removal at AwaitingConfirmation does not block fee updates
		require.NoError(t, svc.RequestRemoval(ctx, operator, model.RemovalInput{StudentID: student, Term: 1}))

		boundary.On("Submit", tmock.Anything, tmock.Anything).Return(chain.Handle("0xfee2"), nil)
		boundary.On("Poll", tmock.Anything, chain.Handle("0xfee2")).Return(chain.Receipt{State: chain.ReceiptConfirmed}, nil)
		require.NoError(t, svc.RequestFeeUpdate(ctx, operator, model.FeeUpdateInput{AmountWei: 100}))

		require.NoError(t, svc.Cancel(chain.OpRemoveStudent))
	})

	t.Run("AuditFailureDoesNotFailOperation", func(t *testing.T) {
		boundary := new(mock.MockBoundary)
		stubGateReads(boundary)
		boundary.On("Submit", tmock.Anything, tmock.Anything).Return(chain.Handle("0xfee3"), nil)
		boundary.On("Poll", tmock.Anything, chain.Handle("0xfee3")).Return(chain.Receipt{State: chain.ReceiptConfirmed}, nil)

		auditSvc := new(mock.MockAuditService)
		auditSvc.On("RecordOutcome", tmock.Anything, tmock.Anything).Return(errors.New("elasticsearch unavailable"))

		bus := util.NewEventBus()
		svc := service.NewOperationService(
			gate.New(boundary),
			boundary,
			util.NewValidationUtil(),
			auditSvc,
			util.NewNotificationService(),
			bus,
			service.OperationConfig{PollInterval: time.Millisecond},
		)

		// The audit trail is downstream of the outcome; a write failure is
		// logged, not surfaced to the caller
		require.NoError(t, svc.RequestFeeUpdate(ctx, operator, model.FeeUpdateInput{AmountWei: 42}))
		bus.Flush()
		auditSvc.AssertCalled(t, "RecordOutcome", tmock.Anything, tmock.Anything)
	})

	t.Run("Preflight", func(t *testing.T) {
		boundary := new(mock.MockBoundary)
		stubGateReads(boundary)

		svc := newService(boundary, audit.NewMemoryRepository(), util.NewEventBus())

		decision, err := svc.Preflight(ctx, operator, chain.OpWithdraw)
		require.NoError(t, err)
		assert.Equal(t, gate.Ready, decision.State)
	})
}
