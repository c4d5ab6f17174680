package payments

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Domain errors.
var (
	ErrNotFound         = fmt.Errorf("%w: payment", httpx.ErrNotFound)
	ErrCourseNotFound   = fmt.Errorf("%w: course", httpx.ErrNotFound)
	ErrAlreadyEnrolled  = fmt.Errorf("%w: course already purchased", httpx.ErrConflict)
	ErrOwnCourse        = fmt.Errorf("%w: authors cannot buy their own course", httpx.ErrConflict)
	ErrDuplicateRequest = fmt.Errorf("%w: idempotency key already used", httpx.ErrConflict)
)

// Status is the lifecycle state of a payment.
type Status string

// Payment statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Payment methods.
const (
	MethodCard         = "card"
	MethodPaypal       = "paypal"
	MethodCrypto       = "crypto"
	MethodBankTransfer = "bank_transfer"
)

// Payment is a purchase of one course by one user.
type Payment struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	CourseID          uuid.UUID  `json:"course_id"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	Status            Status     `json:"status"`
	Method            string     `json:"method"`
	Provider          string     `json:"provider"`
	ProviderPaymentID *string    `json:"provider_payment_id,omitempty"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Ref returns the authorization facts of p.
func (p *Payment) Ref() *authz.PaymentRef {
	return &authz.PaymentRef{ID: p.ID, UserID: p.UserID}
}

// CourseOffer is the purchasable view of a course.
type CourseOffer struct {
	ID       uuid.UUID
	AuthorID uuid.UUID
	Active   bool
	Price    float64
	Discount int
	Currency string
}

// Amount returns the discounted price rounded to cents.
func (o CourseOffer) Amount() float64 {
	return math.Round(o.Price*float64(100-o.Discount)) / 100
}

// CreateRequest is the payload of POST /payments.
type CreateRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
	Method   string    `json:"method" validate:"required,oneof=card paypal crypto bank_transfer"`
}
