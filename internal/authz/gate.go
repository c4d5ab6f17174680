package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidGate is returned by NewGate for configurations that could never
// authorize correctly.
var ErrInvalidGate = errors.New("authz: invalid gate")

// Mode controls whether a gate accepts anonymous requests.
type Mode uint8

const (
	// PrincipalRequired denies anonymous requests with ErrNotAuthorized
	// before the target is loaded.
	PrincipalRequired Mode = iota
	// PrincipalOptional lets anonymous requests reach the predicates.
	PrincipalOptional
)

// Lookup loads a gate target by id.
type Lookup[T any] func(ctx context.Context, id string) (T, error)

// Binder copies the authorization facts of a loaded target into Context.
type Binder[T any] func(pc *Context, target T)

// GateConfig declares one authorization point.
type GateConfig[T any] struct {
	// Name labels decisions in logs and metrics. Defaults to "<domain>.<action>".
	Name       string
	Domain     Domain
	Action     Action
	Mode       Mode
	Lookup     Lookup[T]
	Bind       Binder[T]
	Provides   Field
	Logic      Logic
	Predicates []Predicate
	// NotFound is the lookup error that means the target does not exist.
	// Matching errors are reported as ErrTargetNotFound.
	NotFound error
	// Conceal reports every denial as ErrTargetNotFound.
	Conceal  bool
	Observer Observer
	Logger   *slog.Logger
}

// Gate authorizes one action of one domain.
type Gate[T any] struct {
	cfg GateConfig[T]
}

// NewGate validates cfg and builds the gate.
func NewGate[T any](cfg GateConfig[T]) (*Gate[T], error) {
	if len(cfg.Predicates) == 0 {
		return nil, fmt.Errorf("%w: no predicates", ErrInvalidGate)
	}
	if !cfg.Logic.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGate, cfg.Logic)
	}
	if !cfg.Domain.Allows(cfg.Action) {
		return nil, fmt.Errorf("%w: action %q not allowed in domain %q", ErrInvalidGate, cfg.Action, cfg.Domain)
	}
	if cfg.Mode != PrincipalRequired && cfg.Mode != PrincipalOptional {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidGate, cfg.Mode)
	}
	var requires Field
	for i, p := range cfg.Predicates {
		if !p.Defined() {
			return nil, fmt.Errorf("%w: predicate %d is undefined", ErrInvalidGate, i)
		}
		requires |= p.Requires()
	}
	if missing := requires &^ cfg.Provides; missing != FieldNone {
		return nil, fmt.Errorf("%w: predicates require %s which the gate does not provide", ErrInvalidGate, missing)
	}
	if cfg.Provides != FieldNone && cfg.Bind == nil {
		return nil, fmt.Errorf("%w: provides %s without a binder", ErrInvalidGate, cfg.Provides)
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.Domain) + "." + string(cfg.Action)
	}
	cfg.Predicates = append([]Predicate(nil), cfg.Predicates...)
	return &Gate[T]{cfg: cfg}, nil
}

// MustGate is NewGate for package-level wiring; it panics on an invalid
// configuration.
func MustGate[T any](cfg GateConfig[T]) *Gate[T] {
	g, err := NewGate(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the gate label.
func (g *Gate[T]) Name() string {
	return g.cfg.Name
}

// Action returns the action the gate authorizes.
func (g *Gate[T]) Action() Action {
	return g.cfg.Action
}

// Using returns a copy of the gate that loads targets through lookup,
// typically a repository bound to the running transaction.
func (g *Gate[T]) Using(lookup Lookup[T]) *Gate[T] {
	cp := *g
	cp.cfg.Lookup = lookup
	return &cp
}

// Authorize resolves the principal, loads the target with id and runs the
// predicates. The target is returned only when the action is allowed.
func (g *Gate[T]) Authorize(ctx context.Context, id string) (T, error) {
	var zero T
	principal := PrincipalFromContext(ctx)
	if err := g.requirePrincipal(principal); err != nil {
		return zero, g.finish(ctx, err)
	}
	if g.cfg.Lookup == nil {
		return zero, fmt.Errorf("%w: %s has no lookup", ErrInvalidGate, g.cfg.Name)
	}
	target, err := g.cfg.Lookup(ctx, id)
	if err != nil {
		if g.cfg.NotFound != nil && errors.Is(err, g.cfg.NotFound) {
			err = &Denial{Kind: ErrTargetNotFound, Predicate: g.cfg.Name, Reason: "target not found", cause: err}
		}
		return zero, g.finish(ctx, err)
	}
	if err := g.decide(ctx, principal, target); err != nil {
		return zero, err
	}
	return target, nil
}

// Check runs the predicates against an already loaded target.
func (g *Gate[T]) Check(ctx context.Context, target T) error {
	principal := PrincipalFromContext(ctx)
	if err := g.requirePrincipal(principal); err != nil {
		return g.finish(ctx, err)
	}
	return g.decide(ctx, principal, target)
}

// Require runs a gate whose predicates read only the principal.
func (g *Gate[T]) Require(ctx context.Context) error {
	var zero T
	return g.Check(ctx, zero)
}

func (g *Gate[T]) requirePrincipal(p *Principal) error {
	if p == nil && g.cfg.Mode == PrincipalRequired {
		return Deny(ErrNotAuthorized, g.cfg.Name, "authentication required")
	}
	return nil
}

func (g *Gate[T]) decide(ctx context.Context, principal *Principal, target T) error {
	pc := &Context{Principal: principal, Action: g.cfg.Action}
	if g.cfg.Bind != nil {
		g.cfg.Bind(pc, target)
	}
	return g.finish(ctx, Validate(pc, g.cfg.Logic, g.cfg.Predicates...))
}

func (g *Gate[T]) finish(ctx context.Context, err error) error {
	if err != nil && g.cfg.Conceal && !errors.Is(err, ErrNotAuthorized) {
		err = Conceal(err)
	}
	outcome := Classify(err)
	if g.cfg.Observer != nil {
		g.cfg.Observer.ObserveDecision(Decision{Gate: g.cfg.Name, Domain: g.cfg.Domain, Action: g.cfg.Action, Outcome: outcome})
	}
	if err != nil && g.cfg.Logger != nil {
		g.cfg.Logger.DebugContext(ctx, "authorization denied",
			slog.String("gate", g.cfg.Name),
			slog.String("outcome", string(outcome)),
			slog.Any("error", err))
	}
	return err
}
