package authz

import (
	"context"
	"strings"
)

// Field names an optional slot of Context that predicates may require.
type Field uint8

// Context slots.
const (
	FieldTargetUser Field = 1 << iota
	FieldCourse
	FieldLesson
	FieldPayment

	FieldNone Field = 0
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldTargetUser, "target_user"},
	{FieldCourse, "course"},
	{FieldLesson, "lesson"},
	{FieldPayment, "payment"},
}

// Has reports whether every bit of other is set in f.
func (f Field) Has(other Field) bool {
	return f&other == other
}

func (f Field) String() string {
	if f == FieldNone {
		return "none"
	}
	names := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if f&fn.field != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// Context is the per-request input of every predicate. It is built once by
// a Gate and must not be mutated by predicates.
type Context struct {
	// Principal is nil for anonymous requests.
	Principal  *Principal
	Action     Action
	TargetUser *Principal
	Course     *CourseRef
	Lesson     *LessonRef
	Payment    *PaymentRef
}

// Author returns the author record of the acting principal, if any.
func (c *Context) Author() *AuthorRef {
	if c == nil || c.Principal == nil {
		return nil
	}
	return c.Principal.Author
}

// Provided returns the set of optional slots that are populated.
func (c *Context) Provided() Field {
	var f Field
	if c.TargetUser != nil {
		f |= FieldTargetUser
	}
	if c.Course != nil {
		f |= FieldCourse
	}
	if c.Lesson != nil {
		f |= FieldLesson
	}
	if c.Payment != nil {
		f |= FieldPayment
	}
	return f
}

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
