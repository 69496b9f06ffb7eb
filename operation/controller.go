// api/operation/controller.go
package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerdash/ledgerdash/api/chain"
	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/gate"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/util"
)

// Status of the live operation inside a controller.
type Status string

const (
	StatusIdle                 Status = "Idle"
	StatusValidating           Status = "Validating"
	StatusChecking             Status = "Checking"
	StatusUnauthorized         Status = "Unauthorized"
	StatusAwaitingConfirmation Status = "AwaitingConfirmation"
	StatusPending              Status = "Pending"
	StatusConfirming           Status = "Confirming"
	StatusSucceeded            Status = "Succeeded"
	StatusFailed               Status = "Failed"
)

// Event topics published when an operation reaches a terminal state.
const (
	EventSucceeded = "operation.succeeded"
	EventFailed    = "operation.failed"
)

const (
	defaultHistoryLimit = 10
	defaultPollInterval = 2 * time.Second
)

// Definition parameterizes a controller for one guarded operation kind. The
// same state machine drives recovery, removal, fee updates and withdrawals;
// only the hooks differ.
type Definition[T any] struct {
	// Kind is the submission kind sent to the ledger gateway.
	Kind string
	// Capability is the role name the principal must hold.
	Capability string
	// Validate applies pure, synchronous input predicates. A validation
	// failure never reaches the remote boundary.
	Validate func(T) error
	// Params maps the validated input onto submission parameters.
	Params func(T) map[string]any
	// Target optionally names the account an operation acts on, for the
	// recent-targets list and audit records.
	Target func(T) model.Address
	// RequireConfirmation inserts an AwaitingConfirmation stop between the
	// authorization check and submission. Set for irreversible operations.
	RequireConfirmation bool
	// HistoryLimit bounds the terminal-outcome ledger (default 10).
	HistoryLimit int
	// PollInterval spaces receipt polls (default 2s).
	PollInterval time.Duration
	// ConfirmTimeout bounds the wait for a receipt; 0 waits forever.
	ConfirmTimeout time.Duration
	// OnTransition, when set, observes every state change synchronously.
	// It must not call back into the controller.
	OnTransition func(from, to Status)
}

// Record is one immutable entry in a controller's history, appended when an
// operation reaches Succeeded or Failed.
type Record struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Principal model.Address      `json:"principal"`
	Target    model.Address      `json:"target,omitempty"`
	Input     any                `json:"input"`
	Outcome   Status             `json:"outcome"`
	ErrorKind ledger_errors.Kind `json:"errorKind,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Snapshot is the single coherent status a controller exposes. State returns
// to Idle after every attempt; LastOutcome and the error fields describe how
// the previous attempt ended.
type Snapshot struct {
	State       Status             `json:"state"`
	LastOutcome Status             `json:"lastOutcome,omitempty"`
	ErrorKind   ledger_errors.Kind `json:"errorKind,omitempty"`
	Error       string             `json:"error,omitempty"`
	Handle      chain.Handle       `json:"handle,omitempty"`
}

// Controller drives one guarded state-changing request from user intent to
// terminal outcome. At most one operation is in flight per controller; a
// Request while non-Idle is rejected, which is what makes duplicate
// submissions from repeated clicks impossible.
type Controller[T any] struct {
	def      Definition[T]
	gate     *gate.Gate
	boundary chain.Boundary
	bus      *util.EventBus

	mu          sync.Mutex
	state       Status
	lastOutcome Status
	lastErr     *ledger_errors.OperationError
	handle      chain.Handle
	principal   model.Address
	pending     *T
	history     []Record
}

func NewController[T any](def Definition[T], g *gate.Gate, boundary chain.Boundary, bus *util.EventBus) *Controller[T] {
	if def.HistoryLimit <= 0 {
		def.HistoryLimit = defaultHistoryLimit
	}
	if def.PollInterval <= 0 {
		def.PollInterval = defaultPollInterval
	}
	return &Controller[T]{
		def:      def,
		gate:     g,
		boundary: boundary,
		bus:      bus,
		state:    StatusIdle,
	}
}

// Kind returns the operation kind this controller drives.
func (c *Controller[T]) Kind() string {
	return c.def.Kind
}

// Request walks input through validate, authorization check, submission and
// confirmation. It blocks until the operation terminates, or until it parks
// at AwaitingConfirmation for two-step kinds. While another request is in
// flight it returns ErrControllerBusy without side effects.
func (c *Controller[T]) Request(ctx context.Context, principal model.Address, input T) error {
	c.mu.Lock()
	if c.state != StatusIdle {
		c.mu.Unlock()
		return ledger_errors.ErrControllerBusy
	}
	c.setStateLocked(StatusValidating)
	c.principal = principal
	c.mu.Unlock()

	if err := c.def.Validate(input); err != nil {
		return c.finish(ctx, principal, input, StatusFailed, ledger_errors.Wrap(ledger_errors.KindValidation, err))
	}
	if !principal.Valid() {
		return c.finish(ctx, principal, input, StatusFailed,
			ledger_errors.Wrap(ledger_errors.KindValidation, fmt.Errorf("principal %q: %w", principal, ledger_errors.ErrInvalidAddress)))
	}

	blocked, checkErr := c.check(ctx, principal)
	if checkErr != nil {
		return c.finish(ctx, principal, input, StatusFailed, checkErr)
	}
	if blocked != nil {
		return c.finishUnauthorized(principal, input, blocked)
	}

	if c.def.RequireConfirmation {
		c.mu.Lock()
		c.setStateLocked(StatusAwaitingConfirmation)
		c.pending = &input
		c.mu.Unlock()
		logger.Info("Operation awaiting user confirmation",
			zap.String("kind", c.def.Kind),
			zap.String("principal", principal.String()))
		return nil
	}

	return c.proceed(ctx, principal, input)
}

// Confirm resumes a two-step operation. The authorization check runs again
// before submission: the earlier Ready decision only covered entry into
// AwaitingConfirmation, and the pause flag may have flipped while the user
// was looking at the dialog.
func (c *Controller[T]) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatusAwaitingConfirmation || c.pending == nil {
		c.mu.Unlock()
		return ledger_errors.ErrNotAwaitingConfirmation
	}
	input := *c.pending
	principal := c.principal
	c.pending = nil
	c.setStateLocked(StatusChecking)
	c.mu.Unlock()

	blocked, checkErr := c.recheck(ctx, principal)
	if checkErr != nil {
		return c.finish(ctx, principal, input, StatusFailed, checkErr)
	}
	if blocked != nil {
		return c.finishUnauthorized(principal, input, blocked)
	}

	return c.proceed(ctx, principal, input)
}

// Cancel abandons a two-step operation before submission.
func (c *Controller[T]) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatusAwaitingConfirmation {
		return ledger_errors.ErrNotAwaitingConfirmation
	}
	c.pending = nil
	c.setStateLocked(StatusIdle)
	return nil
}

// Status returns the current snapshot.
func (c *Controller[T]) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:       c.state,
		LastOutcome: c.lastOutcome,
		Handle:      c.handle,
	}
	if c.lastErr != nil {
		snap.ErrorKind = c.lastErr.Kind
		snap.Error = c.lastErr.Error()
	}
	return snap
}

// History returns a copy of the bounded terminal-outcome ledger, most recent
// last.
func (c *Controller[T]) History() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.history))
	copy(out, c.history)
	return out
}

// check moves to Checking and consults the gate. blocked is non-nil when the
// principal may not proceed; checkErr is non-nil when the check itself could
// not be completed.
func (c *Controller[T]) check(ctx context.Context, principal model.Address) (blocked, checkErr *ledger_errors.OperationError) {
	c.mu.Lock()
	c.setStateLocked(StatusChecking)
	c.mu.Unlock()
	return c.recheck(ctx, principal)
}

func (c *Controller[T]) recheck(ctx context.Context, principal model.Address) (blocked, checkErr *ledger_errors.OperationError) {
	decision, err := c.gate.Check(ctx, principal, c.def.Capability)
	if err != nil {
		return nil, ledger_errors.Wrap(ledger_errors.KindTransientRead, err)
	}
	if decision.State == gate.Ready {
		return nil, nil
	}
	// Capability takes precedence when both conditions block: the principal
	// could not proceed even after an unpause.
	if decision.MissingCapability {
		return ledger_errors.Wrap(ledger_errors.KindAuthorization, ledger_errors.ErrMissingCapability), nil
	}
	return ledger_errors.Wrap(ledger_errors.KindSystemPaused, ledger_errors.ErrSystemPaused), nil
}

// proceed submits and tracks confirmation. Submission is irrevocable: once
// the gateway accepts, the only exits are a terminal receipt, the configured
// confirm timeout, or context cancellation.
func (c *Controller[T]) proceed(ctx context.Context, principal model.Address, input T) error {
	c.mu.Lock()
	c.setStateLocked(StatusPending)
	c.mu.Unlock()

	handle, err := c.boundary.Submit(ctx, chain.Submission{
		Kind:   c.def.Kind,
		Params: c.def.Params(input),
	})
	if err != nil {
		return c.finish(ctx, principal, input, StatusFailed, ledger_errors.Wrap(ledger_errors.KindSubmission, err))
	}

	c.mu.Lock()
	c.handle = handle
	c.setStateLocked(StatusConfirming)
	c.mu.Unlock()

	receipt, err := c.awaitReceipt(ctx, handle)
	if err != nil {
		return c.finish(ctx, principal, input, StatusFailed, ledger_errors.Wrap(ledger_errors.KindExecution, err))
	}
	if receipt.State == chain.ReceiptFailed {
		return c.finish(ctx, principal, input, StatusFailed,
			ledger_errors.Wrap(ledger_errors.KindExecution, errors.New(receipt.Reason)))
	}
	return c.finish(ctx, principal, input, StatusSucceeded, nil)
}

// awaitReceipt polls until the gateway reports a terminal receipt. Poll is
// idempotent, so transient poll failures are logged and retried rather than
// treated as an operation failure.
func (c *Controller[T]) awaitReceipt(ctx context.Context, handle chain.Handle) (chain.Receipt, error) {
	var deadline time.Time
	if c.def.ConfirmTimeout > 0 {
		deadline = time.Now().Add(c.def.ConfirmTimeout)
	}

	for {
		receipt, err := c.boundary.Poll(ctx, handle)
		if err != nil {
			logger.Warn("Receipt poll failed, will retry",
				zap.Error(err),
				zap.String("kind", c.def.Kind),
				zap.String("handle", string(handle)))
		} else if receipt.State != chain.ReceiptPending {
			return receipt, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return chain.Receipt{}, ledger_errors.ErrConfirmationTimeout
		}

		select {
		case <-ctx.Done():
			return chain.Receipt{}, ctx.Err()
		case <-time.After(c.def.PollInterval):
		}
	}
}

// finishUnauthorized surfaces a blocked attempt. Unauthorized is terminal for
// the attempt but is not folded into history: nothing was submitted.
func (c *Controller[T]) finishUnauthorized(principal model.Address, input T, blockErr *ledger_errors.OperationError) error {
	c.mu.Lock()
	c.setStateLocked(StatusUnauthorized)
	c.lastOutcome = StatusUnauthorized
	c.lastErr = blockErr
	c.handle = ""
	c.setStateLocked(StatusIdle)
	c.mu.Unlock()

	logger.Warn("Operation blocked",
		zap.String("kind", c.def.Kind),
		zap.String("principal", principal.String()),
		zap.String("reason", string(blockErr.Kind)))
	return blockErr
}

// finish folds a terminal outcome into history, resets the live state to
// Idle, and publishes the record on the event bus.
func (c *Controller[T]) finish(ctx context.Context, principal model.Address, input T, outcome Status, opErr *ledger_errors.OperationError) error {
	record := Record{
		ID:        uuid.NewString(),
		Kind:      c.def.Kind,
		Principal: principal,
		Input:     input,
		Outcome:   outcome,
		Timestamp: time.Now().UTC(),
	}
	if c.def.Target != nil {
		record.Target = c.def.Target(input).Normalize()
	}
	if opErr != nil {
		record.ErrorKind = opErr.Kind
		record.Error = opErr.Error()
	}

	c.mu.Lock()
	c.setStateLocked(outcome)
	c.history = append(c.history, record)
	if len(c.history) > c.def.HistoryLimit {
		c.history = c.history[len(c.history)-c.def.HistoryLimit:]
	}
	c.lastOutcome = outcome
	c.lastErr = opErr
	c.handle = ""
	c.setStateLocked(StatusIdle)
	c.mu.Unlock()

	if c.bus != nil {
		topic := EventSucceeded
		if outcome == StatusFailed {
			topic = EventFailed
		}
		c.bus.Publish(ctx, topic, record)
	}

	if opErr != nil {
		logger.Warn("Operation failed",
			zap.String("kind", c.def.Kind),
			zap.String("principal", principal.String()),
			zap.String("errorKind", string(opErr.Kind)),
			zap.Error(opErr))
		return opErr
	}

	logger.Info("Operation succeeded",
		zap.String("kind", c.def.Kind),
		zap.String("principal", principal.String()),
		zap.String("recordID", record.ID))
	return nil
}

// setStateLocked transitions the live state. Callers hold c.mu.
func (c *Controller[T]) setStateLocked(to Status) {
	from := c.state
	c.state = to
	if c.def.OnTransition != nil && from != to {
		c.def.OnTransition(from, to)
	}
}
