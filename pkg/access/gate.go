package access

import (
	"context"
	"fmt"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

// Checker is the permission-check primitive every resource service calls
// before mutating state. It is an interface rather than a concrete type so
// tests can substitute a fake.
type Checker interface {
	// HasAccess reports whether userID holds at least the required level on
	// the resource. The resource id is a list id (FromList) or a task id
	// (FromTask). A missing record yields false, not an error.
	HasAccess(ctx context.Context, resourceID int64, userID string, level Level, mode Mode) (bool, error)
}

// Resolver produces the effective access set for a resource. Implemented by
// Service; separated out so the gate can be tested against a fixed set.
type Resolver interface {
	Resolve(ctx context.Context, resourceID int64, mode Mode) ([]Record, error)
}

// Gate evaluates capability checks against a Resolver.
type Gate struct {
	resolver Resolver
	observe  func(level, mode string, allowed bool)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithObserver registers a callback invoked once per decision, used to feed
// the access-check metrics.
func WithObserver(fn func(level, mode string, allowed bool)) GateOption {
	return func(g *Gate) {
		g.observe = fn
	}
}

// NewGate creates a gate over the given resolver.
func NewGate(resolver Resolver, opts ...GateOption) *Gate {
	g := &Gate{resolver: resolver}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasAccess implements Checker.
func (g *Gate) HasAccess(ctx context.Context, resourceID int64, userID string, level Level, mode Mode) (bool, error) {
	records, err := g.resolver.Resolve(ctx, resourceID, mode)
	if err != nil {
		return false, err
	}

	allowed := false
	for _, rec := range records {
		if rec.UserID == userID && Satisfies(rec.Role, level) {
			allowed = true
			break
		}
	}

	if g.observe != nil {
		g.observe(string(level), string(mode), allowed)
	}
	return allowed, nil
}

// Require translates a false HasAccess result into ErrAccessDenied. Resource
// services call this at the top of every mutating operation.
func Require(ctx context.Context, c Checker, resourceID int64, userID string, level Level, mode Mode) error {
	ok, err := c.HasAccess(ctx, resourceID, userID, level, mode)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s lacks %s access (%s %d): %w", userID, level, mode, resourceID, errs.ErrAccessDenied)
	}
	return nil
}
