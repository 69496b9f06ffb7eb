// api/gate/gate.go
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerdash/ledgerdash/api/chain"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
)

// State of a combined authorization-and-availability check.
type State string

const (
	Unchecked   State = "Unchecked"
	Checking    State = "Checking"
	Ready       State = "Ready"
	Blocked     State = "Blocked"
	CheckFailed State = "CheckFailed"
)

// Decision is the outcome of one combined check. When Blocked, the two
// booleans say why independently: the UI shows different remediation for
// "acquire the capability" and "wait for the system to unpause", so they must
// never collapse into one flag.
type Decision struct {
	State             State `json:"state"`
	MissingCapability bool  `json:"missingCapability"`
	SystemPaused      bool  `json:"systemPaused"`
}

// Gate evaluates whether a principal may proceed with a guarded operation.
// Capability holdings and the pause flag are read fresh on every check; only
// the name-to-token resolution is memoized, since tokens are static for the
// process lifetime.
type Gate struct {
	boundary chain.Boundary
	tokens   sync.Map // capability name -> token string
}

func New(boundary chain.Boundary) *Gate {
	return &Gate{boundary: boundary}
}

func (g *Gate) resolveToken(ctx context.Context, capabilityName string) (string, error) {
	if token, ok := g.tokens.Load(capabilityName); ok {
		return token.(string), nil
	}

	raw, err := g.boundary.Read(ctx, chain.Query{
		Kind:   chain.QueryCapabilityToken,
		Params: map[string]any{"name": capabilityName},
	})
	if err != nil {
		return "", fmt.Errorf("resolve capability %q: %w", capabilityName, err)
	}

	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("resolve capability %q: decode token: %w", capabilityName, err)
	}

	g.tokens.Store(capabilityName, token)
	logger.Debug("Capability token resolved",
		zap.String("capability", capabilityName),
		zap.String("token", token))
	return token, nil
}

// HasCapability reports whether principal currently holds capabilityName.
// The holding is never cached: authorization can change between checks.
func (g *Gate) HasCapability(ctx context.Context, principal model.Address, capabilityName string) (bool, error) {
	token, err := g.resolveToken(ctx, capabilityName)
	if err != nil {
		return false, err
	}

	raw, err := g.boundary.Read(ctx, chain.Query{
		Kind: chain.QueryHasCapability,
		Params: map[string]any{
			"principal": principal.Normalize().String(),
			"token":     token,
		},
	})
	if err != nil {
		return false, fmt.Errorf("check capability %q for %s: %w", capabilityName, principal, err)
	}

	var holds bool
	if err := json.Unmarshal(raw, &holds); err != nil {
		return false, fmt.Errorf("check capability %q for %s: decode: %w", capabilityName, principal, err)
	}
	return holds, nil
}

// IsPaused reads the current global availability flag. Callers must re-read
// it immediately before each guarded submission rather than reuse an earlier
// answer: the flag can flip between a form being opened and submitted.
func (g *Gate) IsPaused(ctx context.Context) (bool, error) {
	raw, err := g.boundary.Read(ctx, chain.Query{Kind: chain.QueryPaused})
	if err != nil {
		return false, fmt.Errorf("read pause flag: %w", err)
	}

	var paused bool
	if err := json.Unmarshal(raw, &paused); err != nil {
		return false, fmt.Errorf("read pause flag: decode: %w", err)
	}
	return paused, nil
}

// Check runs both sub-checks concurrently and combines them. If either check
// cannot be determined the decision is CheckFailed with the underlying cause
// in the returned error; it is never silently reported as Blocked.
func (g *Gate) Check(ctx context.Context, principal model.Address, capabilityName string) (Decision, error) {
	var (
		holds  bool
		paused bool
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		holds, err = g.HasCapability(egCtx, principal, capabilityName)
		return err
	})
	eg.Go(func() error {
		var err error
		paused, err = g.IsPaused(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		logger.Error("Authorization check failed",
			zap.Error(err),
			zap.String("principal", principal.String()),
			zap.String("capability", capabilityName))
		return Decision{State: CheckFailed}, err
	}

	decision := Decision{
		State:             Ready,
		MissingCapability: !holds,
		SystemPaused:      paused,
	}
	if decision.MissingCapability || decision.SystemPaused {
		decision.State = Blocked
	}

	logger.Debug("Authorization check completed",
		zap.String("principal", principal.String()),
		zap.String("capability", capabilityName),
		zap.String("state", string(decision.State)),
		zap.Bool("missingCapability", decision.MissingCapability),
		zap.Bool("systemPaused", decision.SystemPaused))
	return decision, nil
}

// CanProceed is the single boolean the UI keys off. A failed check returns
// the error, not false: "unknown" must stay distinguishable from "blocked".
func (g *Gate) CanProceed(ctx context.Context, principal model.Address, capabilityName string) (bool, error) {
	decision, err := g.Check(ctx, principal, capabilityName)
	if err != nil {
		return false, err
	}
	return decision.State == Ready, nil
}
