package lessons

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound       = fmt.Errorf("%w: lesson", httpx.ErrNotFound)
	ErrCourseNotFound = fmt.Errorf("%w: course", httpx.ErrNotFound)
	ErrOrderTaken     = fmt.Errorf("%w: order number already used in this course", httpx.ErrDuplicate)
	ErrEmptyUpdate    = fmt.Errorf("%w: at least one field must be provided", httpx.ErrValidation)

	errSlugTaken = fmt.Errorf("%w: lesson slug", httpx.ErrDuplicate)
)

// Lesson types.
const (
	TypeVideo    = "VIDEO"
	TypeQuiz     = "QUIZ"
	TypeText     = "TEXT"
	TypePractice = "PRACTICE"
)

// Material is a downloadable attachment of a lesson.
type Material struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

// Lesson is one unit of a course.
type Lesson struct {
	ID                uuid.UUID  `json:"id"`
	CourseID          uuid.UUID  `json:"course_id"`
	Title             string     `json:"title"`
	Slug              string     `json:"slug"`
	Description       string     `json:"description"`
	OrderNumber       int        `json:"order_number"`
	Type              string     `json:"type"`
	VideoURL          *string    `json:"video_url,omitempty"`
	VideoDuration     *int       `json:"video_duration,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	IsFree            bool       `json:"is_free"`
	IsPublished       bool       `json:"is_published"`
	Materials         []Material `json:"materials"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Owning course facts, loaded for authorization.
	AuthorID     uuid.UUID `json:"-"`
	CourseActive bool      `json:"-"`
}

// Ref returns the authorization facts of l. A lesson of an inactive course
// is treated as unpublished.
func (l *Lesson) Ref() *authz.LessonRef {
	return &authz.LessonRef{
		ID:        l.ID,
		CourseID:  l.CourseID,
		AuthorID:  l.AuthorID,
		Published: l.IsPublished && l.CourseActive,
	}
}

// CreateRequest is the payload of POST /courses/{id}/lessons.
type CreateRequest struct {
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description"`
	OrderNumber       int        `json:"order_number" validate:"required,gte=1"`
	Type              string     `json:"type" validate:"required,oneof=VIDEO QUIZ TEXT PRACTICE"`
	VideoURL          *string    `json:"video_url,omitempty" validate:"omitempty,url"`
	VideoDuration     *int       `json:"video_duration,omitempty" validate:"omitempty,gte=0"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"`
	IsFree            bool       `json:"is_free"`
	IsPublished       bool       `json:"is_published"`
	Materials         []Material `json:"materials" validate:"omitempty,dive"`
}

// UpdateRequest is the payload of PATCH /lessons/{id}.
type UpdateRequest struct {
	Title             *string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description       *string     `json:"description,omitempty"`
	OrderNumber       *int        `json:"order_number,omitempty" validate:"omitempty,gte=1"`
	Type              *string     `json:"type,omitempty" validate:"omitempty,oneof=VIDEO QUIZ TEXT PRACTICE"`
	VideoURL          *string     `json:"video_url,omitempty" validate:"omitempty,url"`
	VideoDuration     *int        `json:"video_duration,omitempty" validate:"omitempty,gte=0"`
	EstimatedDuration *int        `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"`
	IsFree            *bool       `json:"is_free,omitempty"`
	IsPublished       *bool       `json:"is_published,omitempty"`
	Materials         *[]Material `json:"materials,omitempty" validate:"omitempty,dive"`
}

// Empty reports whether the patch carries no field.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.OrderNumber == nil && r.Type == nil &&
		r.VideoURL == nil && r.VideoDuration == nil && r.EstimatedDuration == nil &&
		r.IsFree == nil && r.IsPublished == nil && r.Materials == nil
}
