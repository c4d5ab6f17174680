package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Denial taxonomy.
var (
	// ErrNotAuthorized means no usable principal was present where one is required.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrPermissionDenied means the principal lacks rights for the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSelfActionForbidden is the self-delete / self-privilege-change case of ErrPermissionDenied.
	ErrSelfActionForbidden = fmt.Errorf("%w: self action forbidden", ErrPermissionDenied)
	// ErrTargetNotFound means the target does not exist or is hidden from the principal.
	ErrTargetNotFound = errors.New("target not found")
)

// Denial is the typed outcome of a failing predicate.
type Denial struct {
	// Kind is one of the taxonomy sentinels.
	Kind      error
	Predicate string
	Reason    string
	cause     error
}

func (d *Denial) Error() string {
	var b strings.Builder
	b.WriteString("authz")
	if d.Predicate != "" {
		b.WriteString(": ")
		b.WriteString(d.Predicate)
	}
	b.WriteString(": ")
	if d.Reason != "" {
		b.WriteString(d.Reason)
	} else if d.Kind != nil {
		b.WriteString(d.Kind.Error())
	}
	return b.String()
}

// Unwrap exposes the kind and, for concealed denials, the original cause.
func (d *Denial) Unwrap() []error {
	errs := make([]error, 0, 2)
	if d.Kind != nil {
		errs = append(errs, d.Kind)
	}
	if d.cause != nil {
		errs = append(errs, d.cause)
	}
	return errs
}

// Deny builds a Denial of the given kind.
func Deny(kind error, predicate, reason string) *Denial {
	return &Denial{Kind: kind, Predicate: predicate, Reason: reason}
}

// AggregateDenial is returned when every alternative of an OR composition fails.
type AggregateDenial struct {
	Denials []error
}

func (a *AggregateDenial) Error() string {
	reasons := make([]string, 0, len(a.Denials))
	for _, err := range a.Denials {
		reasons = append(reasons, err.Error())
	}
	return "authz: all alternatives denied: " + strings.Join(reasons, "; ")
}

// Unwrap exposes every collected denial.
func (a *AggregateDenial) Unwrap() []error {
	return a.Denials
}

// Conceal turns any denial into ErrTargetNotFound so callers cannot tell a
// hidden target from a missing one. The original denial stays reachable
// through errors.Is and errors.As. Non-denial errors are returned unchanged.
func Conceal(err error) error {
	if err == nil || !IsDenial(err) {
		return err
	}
	if errors.Is(err, ErrTargetNotFound) {
		return err
	}
	return &Denial{Kind: ErrTargetNotFound, Reason: "target not found", cause: err}
}

// IsDenial reports whether err is an authorization outcome rather than an
// infrastructure failure.
func IsDenial(err error) bool {
	var d *Denial
	if errors.As(err, &d) {
		return true
	}
	var agg *AggregateDenial
	return errors.As(err, &agg)
}
