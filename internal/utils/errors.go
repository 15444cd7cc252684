package utils

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeRideNotPending      = "RIDE_NOT_PENDING"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeAlreadyRated        = "ALREADY_RATED"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError is a domain failure that maps onto an HTTP response.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) ErrorCode() string {
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithMessage returns a copy with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

// Wrap returns a copy that carries cause.
func (e *AppError) Wrap(cause error) *AppError {
	clone := *e
	clone.Err = cause
	return &clone
}

func ValidationError(message string, details map[string]string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func NotFoundError(resource string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func ForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func ConflictError(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message)
}

func UpstreamError(message string, cause error) *AppError {
	return &AppError{Status: http.StatusBadGateway, Code: CodeUpstream, Message: message, Err: cause}
}

func InsufficientBalanceError() *AppError {
	return NewAppError(http.StatusPaymentRequired, CodeInsufficientBalance, ErrInsufficientFunds)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeTooManyRequests, message)
}

func UnavailableError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeUnavailable, message)
}
