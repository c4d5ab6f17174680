package courses

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/shared"
)

// Domain errors.
var (
	ErrNotFound    = fmt.Errorf("%w: course", httpx.ErrNotFound)
	ErrEmptyUpdate = fmt.Errorf("%w: at least one field must be provided", httpx.ErrValidation)
)

// Course levels.
const (
	LevelBasic        = "basic"
	LevelMedium       = "medium"
	LevelProfessional = "professional"
)

// Course is a sellable set of lessons written by one author.
type Course struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	Logo        *string   `json:"logo,omitempty"`
	IsActive    bool      `json:"is_active"`
	Rating      float64   `json:"rating"`
	Price       float64   `json:"price"`
	Discount    int       `json:"discount"`
	Currency    string    `json:"currency"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref returns the authorization facts of c.
func (c *Course) Ref() *authz.CourseRef {
	return &authz.CourseRef{ID: c.ID, AuthorID: c.AuthorID, Active: c.IsActive}
}

// CreateRequest is the payload of POST /courses.
type CreateRequest struct {
	Title       string  `json:"title" validate:"required,max=40"`
	Description string  `json:"description" validate:"max=512"`
	Level       string  `json:"level" validate:"required,oneof=basic medium professional"`
	Logo        *string `json:"logo,omitempty" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"gte=0"`
	Discount    int     `json:"discount" validate:"gte=0,lte=100"`
	Currency    string  `json:"currency" validate:"omitempty,oneof=usd eur"`
	Language    string  `json:"language" validate:"omitempty,oneof=en de fr"`
}

// UpdateRequest is the payload of PATCH /courses/{id}.
type UpdateRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=40"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=512"`
	Level       *string  `json:"level,omitempty" validate:"omitempty,oneof=basic medium professional"`
	Logo        *string  `json:"logo,omitempty" validate:"omitempty,url"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Discount    *int     `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Currency    *string  `json:"currency,omitempty" validate:"omitempty,oneof=usd eur"`
	Language    *string  `json:"language,omitempty" validate:"omitempty,oneof=en de fr"`
}

// Empty reports whether the patch carries no field.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Level == nil && r.Logo == nil &&
		r.Price == nil && r.Discount == nil && r.Currency == nil && r.Language == nil
}

// Catalog is one page of the public course list.
type Catalog struct {
	Courses    []Course          `json:"courses"`
	Pagination shared.Pagination `json:"pagination"`
}
