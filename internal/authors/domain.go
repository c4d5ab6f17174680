package authors

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound      = fmt.Errorf("%w: author", httpx.ErrNotFound)
	ErrAlreadyAuthor = fmt.Errorf("%w: user is already an author", httpx.ErrDuplicate)
	ErrEmptyUpdate   = fmt.Errorf("%w: at least one field must be provided", httpx.ErrValidation)

	errSlugTaken = fmt.Errorf("%w: author slug", httpx.ErrDuplicate)
)

// Author is the teaching profile of a user.
type Author struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	IsVerified  bool      `json:"is_verified"`
	Balance     float64   `json:"balance"`
	Education   *string   `json:"education,omitempty"`
	Country     *string   `json:"country,omitempty"`
	City        *string   `json:"city,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Website     *string   `json:"website,omitempty"`
	FacebookURL *string   `json:"facebook_url,omitempty"`
	LinkedinURL *string   `json:"linkedin_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicAuthor is the profile visible to anonymous visitors.
type PublicAuthor struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Surname     string  `json:"surname"`
	IsVerified  bool    `json:"is_verified"`
	Education   *string `json:"education,omitempty"`
	Country     *string `json:"country,omitempty"`
	City        *string `json:"city,omitempty"`
	Website     *string `json:"website,omitempty"`
	FacebookURL *string `json:"facebook_url,omitempty"`
	LinkedinURL *string `json:"linkedin_url,omitempty"`
}

// Public strips balance and contact details.
func (a *Author) Public() PublicAuthor {
	return PublicAuthor{
		Slug:        a.Slug,
		Name:        a.Name,
		Surname:     a.Surname,
		IsVerified:  a.IsVerified,
		Education:   a.Education,
		Country:     a.Country,
		City:        a.City,
		Website:     a.Website,
		FacebookURL: a.FacebookURL,
		LinkedinURL: a.LinkedinURL,
	}
}

// Profile carries the editable author fields.
type Profile struct {
	Education   *string `json:"education,omitempty" validate:"omitempty,max=256"`
	Country     *string `json:"country,omitempty" validate:"omitempty,max=64"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=64"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
	FacebookURL *string `json:"facebook_url,omitempty" validate:"omitempty,url"`
	LinkedinURL *string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
}

// Empty reports whether the profile carries no field.
func (p Profile) Empty() bool {
	return p.Education == nil && p.Country == nil && p.City == nil && p.Phone == nil &&
		p.Website == nil && p.FacebookURL == nil && p.LinkedinURL == nil
}

// VerificationRequest is the payload of the admin verification endpoint.
type VerificationRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
