// api/service/operation_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdash/ledgerdash/api/audit"
	"github.com/ledgerdash/ledgerdash/api/chain"
	"github.com/ledgerdash/ledgerdash/api/db"
	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/gate"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/operation"
	"github.com/ledgerdash/ledgerdash/api/util"
)

// IOperationService drives the dashboard's guarded state-changing requests.
type IOperationService interface {
	RequestRecovery(ctx context.Context, principal model.Address, input model.RecoveryInput) error
	RequestRemoval(ctx context.Context, principal model.Address, input model.RemovalInput) error
	RequestFeeUpdate(ctx context.Context, principal model.Address, input model.FeeUpdateInput) error
	RequestWithdrawal(ctx context.Context, principal model.Address, input model.WithdrawalInput) error
	Confirm(ctx context.Context, kind string) error
	Cancel(kind string) error
	Status(kind string) (operation.Snapshot, error)
	History(kind string) ([]operation.Record, error)
	Preflight(ctx context.Context, principal model.Address, kind string) (gate.Decision, error)
	RecentTargets(ctx context.Context) ([]string, error)
}

// OperationControls is the kind-independent surface of a controller, used to
// route confirm/cancel/status calls without knowing the input type.
type operationControls interface {
	Kind() string
	Confirm(ctx context.Context) error
	Cancel() error
	Status() operation.Snapshot
	History() []operation.Record
}

// OperationService owns one controller per guarded operation kind. The
// gate-and-confirm pattern is identical across kinds; only the definitions
// differ.
type OperationService struct {
	recovery   *operation.Controller[model.RecoveryInput]
	removal    *operation.Controller[model.RemovalInput]
	feeUpdate  *operation.Controller[model.FeeUpdateInput]
	withdrawal *operation.Controller[model.WithdrawalInput]
	byKind     map[string]operationControls

	capabilities map[string]string
	authGate     *gate.Gate
	auditSvc     audit.Service
	notification *util.NotificationService
	recentsCap   int64
}

// OperationConfig carries the tunables shared by all controllers.
type OperationConfig struct {
	HistoryLimit   int
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
	RecentsCap     int
}

func NewOperationService(
	authGate *gate.Gate,
	boundary chain.Boundary,
	validationUtil *util.ValidationUtil,
	auditSvc audit.Service,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	cfg OperationConfig,
) *OperationService {
	if cfg.RecentsCap <= 0 {
		cfg.RecentsCap = 5
	}

	s := &OperationService{
		authGate:     authGate,
		auditSvc:     auditSvc,
		notification: notificationSvc,
		recentsCap:   int64(cfg.RecentsCap),
		capabilities: map[string]string{
			chain.OpRecoverStudent: model.CapabilityRecoverer,
			chain.OpRemoveStudent:  model.CapabilityRemover,
			chain.OpSetFee:         model.CapabilityTreasurer,
			chain.OpWithdraw:       model.CapabilityTreasurer,
		},
	}

	s.recovery = operation.NewController(operation.Definition[model.RecoveryInput]{
		Kind:       chain.OpRecoverStudent,
		Capability: model.CapabilityRecoverer,
		Validate:   validationUtil.ValidateRecoveryInput,
		Params: func(in model.RecoveryInput) map[string]any {
			return map[string]any{"studentId": in.StudentID.Normalize().String(), "term": in.Term}
		},
		Target:         func(in model.RecoveryInput) model.Address { return in.StudentID },
		HistoryLimit:   cfg.HistoryLimit,
		PollInterval:   cfg.PollInterval,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, authGate, boundary, eventBus)

	s.removal = operation.NewController(operation.Definition[model.RemovalInput]{
		Kind:       chain.OpRemoveStudent,
		Capability: model.CapabilityRemover,
		Validate:   validationUtil.ValidateRemovalInput,
		Params: func(in model.RemovalInput) map[string]any {
			return map[string]any{"studentId": in.StudentID.Normalize().String(), "term": in.Term}
		},
		Target:              func(in model.RemovalInput) model.Address { return in.StudentID },
		RequireConfirmation: true, // removal cannot be undone
		HistoryLimit:        cfg.HistoryLimit,
		PollInterval:        cfg.PollInterval,
		ConfirmTimeout:      cfg.ConfirmTimeout,
	}, authGate, boundary, eventBus)

	s.feeUpdate = operation.NewController(operation.Definition[model.FeeUpdateInput]{
		Kind:       chain.OpSetFee,
		Capability: model.CapabilityTreasurer,
		Validate:   validationUtil.ValidateFeeUpdateInput,
		Params: func(in model.FeeUpdateInput) map[string]any {
			return map[string]any{"amountWei": in.AmountWei}
		},
		HistoryLimit:   cfg.HistoryLimit,
		PollInterval:   cfg.PollInterval,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, authGate, boundary, eventBus)

	s.withdrawal = operation.NewController(operation.Definition[model.WithdrawalInput]{
		Kind:       chain.OpWithdraw,
		Capability: model.CapabilityTreasurer,
		Validate:   validationUtil.ValidateWithdrawalInput,
		Params: func(in model.WithdrawalInput) map[string]any {
			return map[string]any{"recipient": in.Recipient.Normalize().String(), "amountWei": in.AmountWei}
		},
		Target:              func(in model.WithdrawalInput) model.Address { return in.Recipient },
		RequireConfirmation: true, // treasury withdrawal cannot be undone
		HistoryLimit:        cfg.HistoryLimit,
		PollInterval:        cfg.PollInterval,
		ConfirmTimeout:      cfg.ConfirmTimeout,
	}, authGate, boundary, eventBus)

	s.byKind = map[string]operationControls{
		chain.OpRecoverStudent: s.recovery,
		chain.OpRemoveStudent:  s.removal,
		chain.OpSetFee:         s.feeUpdate,
		chain.OpWithdraw:       s.withdrawal,
	}

	// Terminal outcomes fan out to the audit trail, notifications and the
	// recent-targets list.
	eventBus.Subscribe(operation.EventSucceeded, s.handleOperationFinished)
	eventBus.Subscribe(operation.EventFailed, s.handleOperationFinished)

	return s
}

func (s *OperationService) handleOperationFinished(ctx context.Context, event util.Event) error {
	record, ok := event.Payload.(operation.Record)
	if !ok {
		logger.Error("Invalid event payload type", zap.Any("payload", event.Payload))
		return nil
	}

	inputJSON, err := json.Marshal(record.Input)
	if err != nil {
		logger.Warn("Failed to marshal operation input for audit", zap.Error(err))
	}
	if err := s.auditSvc.RecordOutcome(ctx, audit.OperationRecord{
		ID:        record.ID,
		Timestamp: record.Timestamp,
		Kind:      record.Kind,
		Principal: record.Principal.Normalize().String(),
		Target:    record.Target.String(),
		Outcome:   string(record.Outcome),
		ErrorKind: string(record.ErrorKind),
		Error:     record.Error,
		Input:     inputJSON,
	}); err != nil {
		logger.Error("Failed to record operation outcome",
			zap.Error(err),
			zap.String("recordID", record.ID))
	}

	if err := s.notification.NotifyOperationOutcome(ctx, record.Kind, string(record.Outcome),
		record.Principal.String(), string(record.ErrorKind), record.ID); err != nil {
		logger.Warn("Failed to send operation notification", zap.Error(err))
	}

	if record.Outcome == operation.StatusSucceeded && record.Target != "" && db.RedisClient != nil {
		if err := db.PushRecentTarget(ctx, record.Target.String(), s.recentsCap); err != nil {
			logger.Warn("Failed to record recent target", zap.Error(err))
		}
	}

	return nil
}

// withLock narrows the cross-replica duplicate-submission window. Best
// effort: without Redis the in-process guard still holds.
func (s *OperationService) withLock(ctx context.Context, kind string, fn func() error) error {
	if db.RedisClient == nil {
		return fn()
	}

	locked, err := db.LockOperation(ctx, kind, 30*time.Second)
	if err != nil {
		logger.Warn("Operation lock unavailable, proceeding with local guard only",
			zap.Error(err), zap.String("kind", kind))
		return fn()
	}
	if !locked {
		return ledger_errors.ErrControllerBusy
	}
	defer func() {
		if err := db.UnlockOperation(ctx, kind); err != nil {
			logger.Warn("Failed to release operation lock", zap.Error(err), zap.String("kind", kind))
		}
	}()
	return fn()
}

func (s *OperationService) RequestRecovery(ctx context.Context, principal model.Address, input model.RecoveryInput) error {
	return s.withLock(ctx, chain.OpRecoverStudent, func() error {
		return s.recovery.Request(ctx, principal, input)
	})
}

func (s *OperationService) RequestRemoval(ctx context.Context, principal model.Address, input model.RemovalInput) error {
	return s.withLock(ctx, chain.OpRemoveStudent, func() error {
		return s.removal.Request(ctx, principal, input)
	})
}

func (s *OperationService) RequestFeeUpdate(ctx context.Context, principal model.Address, input model.FeeUpdateInput) error {
	return s.withLock(ctx, chain.OpSetFee, func() error {
		return s.feeUpdate.Request(ctx, principal, input)
	})
}

func (s *OperationService) RequestWithdrawal(ctx context.Context, principal model.Address, input model.WithdrawalInput) error {
	return s.withLock(ctx, chain.OpWithdraw, func() error {
		return s.withdrawal.Request(ctx, principal, input)
	})
}

func (s *OperationService) Confirm(ctx context.Context, kind string) error {
	controls, ok := s.byKind[kind]
	if !ok {
		return ledger_errors.ErrUnknownOperation
	}
	return s.withLock(ctx, kind, func() error {
		return controls.Confirm(ctx)
	})
}

func (s *OperationService) Cancel(kind string) error {
	controls, ok := s.byKind[kind]
	if !ok {
		return ledger_errors.ErrUnknownOperation
	}
	return controls.Cancel()
}

func (s *OperationService) Status(kind string) (operation.Snapshot, error) {
	controls, ok := s.byKind[kind]
	if !ok {
		return operation.Snapshot{}, ledger_errors.ErrUnknownOperation
	}
	return controls.Status(), nil
}

func (s *OperationService) History(kind string) ([]operation.Record, error) {
	controls, ok := s.byKind[kind]
	if !ok {
		return nil, ledger_errors.ErrUnknownOperation
	}
	return controls.History(), nil
}

// Preflight runs the combined authorization-and-availability check for the
// capability bound to kind, so the UI can enable or annotate the form before
// the user submits. The decision is advisory: the controller re-checks at
// submission time regardless.
func (s *OperationService) Preflight(ctx context.Context, principal model.Address, kind string) (gate.Decision, error) {
	capabilityName, ok := s.capabilities[kind]
	if !ok {
		return gate.Decision{}, ledger_errors.ErrUnknownOperation
	}
	return s.authGate.Check(ctx, principal, capabilityName)
}

func (s *OperationService) RecentTargets(ctx context.Context) ([]string, error) {
	if db.RedisClient == nil {
		return nil, nil
	}
	return db.RecentTargets(ctx)
}
