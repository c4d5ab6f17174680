package authz

import "errors"

// Outcome classifies a gate decision.
type Outcome string

// Decision outcomes.
const (
	OutcomeAllowed       Outcome = "allowed"
	OutcomeNotAuthorized Outcome = "not_authorized"
	OutcomeDenied        Outcome = "denied"
	OutcomeSelfForbidden Outcome = "self_forbidden"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeError         Outcome = "error"
)

// Decision is reported to an Observer after every gate run.
type Decision struct {
	Gate    string
	Domain  Domain
	Action  Action
	Outcome Outcome
}

// Observer receives gate decisions, e.g. to export metrics.
type Observer interface {
	ObserveDecision(Decision)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Decision)

// ObserveDecision calls f.
func (f ObserverFunc) ObserveDecision(d Decision) {
	f(d)
}

// Classify maps a gate result to its Outcome. Concealed denials classify as
// OutcomeNotFound. Mixed aggregates follow the HTTP status precedence:
// not found, then permission denied, then not authorized.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAllowed
	case errors.Is(err, ErrTargetNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrSelfActionForbidden):
		return OutcomeSelfForbidden
	case errors.Is(err, ErrPermissionDenied):
		return OutcomeDenied
	case errors.Is(err, ErrNotAuthorized):
		return OutcomeNotAuthorized
	default:
		return OutcomeError
	}
}
