package authz

// Predicate is a single authorization rule. It either passes (nil) or
// returns a typed denial.
type Predicate struct {
	name     string
	requires Field
	check    func(*Context) error
}

// NewPredicate builds a predicate that needs the given Context slots.
func NewPredicate(name string, requires Field, check func(*Context) error) Predicate {
	return Predicate{name: name, requires: requires, check: check}
}

// Name identifies the predicate in denials and logs.
func (p Predicate) Name() string {
	return p.name
}

// Requires lists the Context slots the predicate reads.
func (p Predicate) Requires() Field {
	return p.requires
}

// Defined reports whether p carries a rule.
func (p Predicate) Defined() bool {
	return p.check != nil
}

// Check runs the rule. Errors that are not already denials are converted
// into ErrPermissionDenied so combinators always see a typed outcome.
func (p Predicate) Check(pc *Context) error {
	if p.check == nil {
		return Deny(ErrPermissionDenied, p.name, "undefined predicate")
	}
	if pc == nil {
		return Deny(ErrPermissionDenied, p.name, "missing authorization context")
	}
	if missing := p.requires &^ pc.Provided(); missing != FieldNone {
		return Deny(ErrPermissionDenied, p.name, "missing context field "+missing.String())
	}
	err := p.check(pc)
	if err == nil {
		return nil
	}
	if d, ok := err.(*Denial); ok {
		if d.Predicate == "" {
			d.Predicate = p.name
		}
		return d
	}
	if IsDenial(err) {
		return err
	}
	return Deny(ErrPermissionDenied, p.name, err.Error())
}
