package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound        = fmt.Errorf("%w: user", httpx.ErrNotFound)
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	ErrAuthorExclusive = fmt.Errorf("%w: user holds an author profile", httpx.ErrConflict)
	ErrEmptyUpdate     = fmt.Errorf("%w: at least one field must be provided", httpx.ErrValidation)
)

// User represents a platform account.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Principal returns the authorization view of u as a target.
func (u *User) Principal() *authz.Principal {
	if u == nil {
		return nil
	}
	return &authz.Principal{ID: u.ID, Role: u.Role.Normalize()}
}

// EnrolledCourse is a course the user has purchased.
type EnrolledCourse struct {
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Level       string    `json:"level"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// RegisterRequest is the payload of POST /users.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=32"`
	Surname  string `json:"surname" validate:"required,max=32"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

// UpdateRequest is the payload of PATCH /users/me.
type UpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=32"`
	Surname *string `json:"surname,omitempty" validate:"omitempty,min=1,max=32"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// Empty reports whether the patch carries no field.
func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Surname == nil && r.Email == nil
}
