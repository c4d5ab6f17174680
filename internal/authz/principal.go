package authz

import "github.com/google/uuid"

// Principal is the acting identity of a request.
type Principal struct {
	ID     uuid.UUID
	Role   Role
	Author *AuthorRef
}

// AuthorRef is the author record held by a principal.
type AuthorRef struct {
	ID       uuid.UUID
	Verified bool
}

// IsAdmin reports whether p holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role.Normalize() == RoleAdmin
}

// IsSuperadmin reports whether p holds the superadmin role.
func (p *Principal) IsSuperadmin() bool {
	return p != nil && p.Role.Normalize() == RoleSuperadmin
}

// InAdminGroup reports whether p is an admin or a superadmin.
func (p *Principal) InAdminGroup() bool {
	return p != nil && p.Role.InAdminGroup()
}

// IsAuthor reports whether p holds an author record.
func (p *Principal) IsAuthor() bool {
	return p != nil && p.Author != nil
}

// Same reports whether p and other identify the same principal.
func (p *Principal) Same(other *Principal) bool {
	return p != nil && other != nil && p.ID == other.ID
}

// CourseRef carries the authorization facts of a course.
type CourseRef struct {
	ID       uuid.UUID
	AuthorID uuid.UUID
	Active   bool
}

// LessonRef carries the authorization facts of a lesson. AuthorID is the
// owning course's author.
type LessonRef struct {
	ID        uuid.UUID
	CourseID  uuid.UUID
	AuthorID  uuid.UUID
	Published bool
}

// PaymentRef carries the authorization facts of a payment.
type PaymentRef struct {
	ID     uuid.UUID
	UserID uuid.UUID
}
