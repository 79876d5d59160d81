package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors surfaced to callers.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewPermissionDenied signals that backend authorization rules rejected the
// operation. Advises a configuration check; never retried automatically.
func NewPermissionDenied(err error) error {
	return &DomainError{
		Code:       "PERMISSION_DENIED",
		Message:    "permission denied by the backend; check access rules configuration",
		HTTPStatus: http.StatusForbidden,
		Err:        err,
	}
}

// NewIndexRequired signals that an ordered query needs a secondary index the
// backend does not have. Operational signal for the backend administrator.
func NewIndexRequired(err error) error {
	return &DomainError{
		Code:       "INDEX_REQUIRED",
		Message:    "a database index required for this query is missing; create the composite index on owner and creation time",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewPaymentVerificationFailed signals that a payment callback signature did
// not verify. Subscription state is left untouched.
func NewPaymentVerificationFailed() error {
	return &DomainError{
		Code:       "PAYMENT_VERIFICATION_FAILED",
		Message:    "payment could not be verified; please contact support",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
