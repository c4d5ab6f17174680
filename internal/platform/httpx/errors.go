// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/learnhub/learnhub/internal/authz"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Status returns the HTTP status RespondError would use for err.
// Concealed denials are checked first so they surface as 404.
func Status(err error) int {
	switch {
	case errors.Is(err, authz.ErrTargetNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrPermissionDenied), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, authz.ErrNotAuthorized), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain and authorization errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusUnprocessableEntity, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: verr.Error(),
			Fields: verr.Fields,
		})
		return
	}
	status := Status(err)
	switch status {
	case http.StatusNotFound:
		Problem(w, status, "Not Found", "resource not found")
	case http.StatusForbidden:
		Problem(w, status, "Forbidden", publicDetail(err))
	case http.StatusUnauthorized:
		Problem(w, status, "Unauthorized", publicDetail(err))
	case http.StatusConflict:
		title := "Conflict"
		if errors.Is(err, ErrDuplicate) {
			title = "Duplicate"
		}
		Problem(w, status, title, err.Error())
	case http.StatusUnprocessableEntity:
		Problem(w, status, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// publicDetail hides aggregated predicate reasons from clients.
func publicDetail(err error) string {
	var agg *authz.AggregateDenial
	if errors.As(err, &agg) {
		return "not permitted"
	}
	return err.Error()
}
