package common

import (
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers. Conflict and state errors carry
// structured Details so the caller can resolve without a second round-trip.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeBadRequest           = "BAD_REQUEST"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeSeatConflict         = "SEAT_CONFLICT"
	CodeBusUnavailable       = "BUS_UNAVAILABLE"
	CodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeAmountExceedsBalance = "AMOUNT_EXCEEDS_BALANCE"
	CodeInvalidTransition    = "INVALID_STATE_TRANSITION"
	CodeTooLateToCancel      = "TOO_LATE_TO_CANCEL"
	CodeForbidden            = "FORBIDDEN"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodePaymentDeclined      = "PAYMENT_DECLINED"
	CodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError is the typed error returned by all core operations. Callers map
// StatusCode to HTTP; Details holds conflict/validation specifics.
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Details    interface{} `json:"details,omitempty"`
	Err        error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured details and returns the error for chaining.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, StatusCode: http.StatusBadRequest, Err: err}
}

// NewValidationError creates a 400 error carrying field-level messages
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, StatusCode: http.StatusBadRequest, Details: fields}
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, StatusCode: http.StatusNotFound, Err: err}
}

// NewConflictError creates a 409 error with the given code and details
func NewConflictError(code, message string, details interface{}) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: http.StatusConflict, Details: details}
}

// NewUnprocessableError creates a 422 error for state violations
func NewUnprocessableError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: http.StatusUnprocessableEntity}
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, StatusCode: http.StatusForbidden}
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, StatusCode: http.StatusUnauthorized}
}

// NewBadGatewayError creates a 502 error for unreachable external dependencies.
// Distinct from a declined payment, which is a 422 with CodePaymentDeclined.
func NewBadGatewayError(message string, err error) *AppError {
	return &AppError{Code: CodeGatewayUnavailable, Message: message, StatusCode: http.StatusBadGateway, Err: err}
}

// NewInternalError creates a 500 error wrapping a cause
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, StatusCode: http.StatusInternalServerError, Err: err}
}

// NewInternalServerError creates a 500 error without a cause
func NewInternalServerError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, StatusCode: http.StatusInternalServerError}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
