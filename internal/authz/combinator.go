package authz

import (
	"fmt"
	"strings"
)

// Logic selects how a list of predicates is composed.
type Logic uint8

const (
	// LogicAnd requires every predicate to pass. It is the default.
	LogicAnd Logic = iota
	// LogicOr requires at least one predicate to pass.
	LogicOr
)

func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "AND"
	case LogicOr:
		return "OR"
	default:
		return fmt.Sprintf("Logic(%d)", uint8(l))
	}
}

// Valid reports whether l is a known composition mode.
func (l Logic) Valid() bool {
	return l == LogicAnd || l == LogicOr
}

// Validate runs preds against pc.
//
// With LogicAnd the first denial is returned immediately and later
// predicates are not run. With LogicOr the first passing predicate ends
// validation; when all fail an *AggregateDenial carrying every reason is
// returned.
func Validate(pc *Context, logic Logic, preds ...Predicate) error {
	switch logic {
	case LogicAnd:
		for _, p := range preds {
			if err := p.Check(pc); err != nil {
				return err
			}
		}
		return nil
	case LogicOr:
		denials := make([]error, 0, len(preds))
		for _, p := range preds {
			err := p.Check(pc)
			if err == nil {
				return nil
			}
			denials = append(denials, err)
		}
		return &AggregateDenial{Denials: denials}
	default:
		return Deny(ErrPermissionDenied, "", "unknown logic "+logic.String())
	}
}

// All composes preds with LogicAnd into a single predicate.
func All(preds ...Predicate) Predicate {
	return compose(LogicAnd, preds)
}

// Any composes preds with LogicOr into a single predicate.
func Any(preds ...Predicate) Predicate {
	return compose(LogicOr, preds)
}

func compose(logic Logic, preds []Predicate) Predicate {
	list := make([]Predicate, len(preds))
	copy(list, preds)
	var requires Field
	names := make([]string, 0, len(list))
	for _, p := range list {
		requires |= p.Requires()
		names = append(names, p.Name())
	}
	op := "all"
	if logic == LogicOr {
		op = "any"
	}
	name := op + "(" + strings.Join(names, ",") + ")"
	return NewPredicate(name, requires, func(pc *Context) error {
		return Validate(pc, logic, list...)
	})
}
