package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes an application error at the session boundary.
type ErrorCode string

const (
	// ErrCodeInvalidCredential covers both unknown identifiers and wrong secrets.
	ErrCodeInvalidCredential ErrorCode = "invalid_credential"
	// ErrCodeInvalidToken collapses malformed, expired and tampered tokens into one outcome.
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeSessionInconsistent means the cookies claim a combination the store cannot confirm.
	ErrCodeSessionInconsistent ErrorCode = "session_inconsistent"
	// ErrCodeDuplicate indicates a unique resource (slug, identifier) already exists.
	ErrCodeDuplicate ErrorCode = "duplicate_resource"
	// ErrCodeUpstream indicates the OAuth provider reported an error or the exchange failed.
	ErrCodeUpstream ErrorCode = "upstream_provider"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeRateLimited indicates too many failed attempts for an identifier.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// Public messages shown for codes whose details must never reach the caller.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgInternal           = "Internal Error"
)

// AppError is a structured application error with a code, a caller-safe message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input for validation and duplicate errors.
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// PublicMessage is the message safe to send to a client.
func (e *AppError) PublicMessage() string {
	switch e.Code {
	case ErrCodeInternal, ErrCodeTimeout, ErrCodeCanceled:
		return MsgInternal
	case ErrCodeInvalidCredential:
		return MsgInvalidCredentials
	default:
		return e.Message
	}
}

// InvalidCredential returns the uniform credential failure.
func InvalidCredential() *AppError {
	return &AppError{Code: ErrCodeInvalidCredential, Message: MsgInvalidCredentials}
}

// InvalidToken returns the uniform token failure, keeping cause for logs only.
func InvalidToken(cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidToken, Message: "invalid token", Cause: cause}
}

// SessionInconsistentf creates a SessionInconsistent error with a formatted message.
func SessionInconsistentf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeSessionInconsistent, Message: fmt.Sprintf(format, args...)}
}

// Duplicate creates a DuplicateResource error for field.
func Duplicate(field, message string) *AppError {
	return &AppError{Code: ErrCodeDuplicate, Message: message, Field: field}
}

// Upstream wraps an OAuth provider failure.
func Upstream(err error, message string) *AppError {
	return &AppError{Code: ErrCodeUpstream, Message: message, Cause: err}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// RateLimited creates a RateLimited error.
func RateLimited(message string) *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// AsInternal leaves AppErrors alone and wraps anything else as Internal.
func AsInternal(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrCodeInternal, message)
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInvalidCredential reports whether err is an InvalidCredential error.
func IsInvalidCredential(err error) bool { return isCode(err, ErrCodeInvalidCredential) }

// IsInvalidToken reports whether err is an InvalidToken error.
func IsInvalidToken(err error) bool { return isCode(err, ErrCodeInvalidToken) }

// IsSessionInconsistent reports whether err is a SessionInconsistent error.
func IsSessionInconsistent(err error) bool { return isCode(err, ErrCodeSessionInconsistent) }

// IsDuplicate reports whether err is a DuplicateResource error.
func IsDuplicate(err error) bool { return isCode(err, ErrCodeDuplicate) }

// IsUpstream reports whether err is an UpstreamProviderError.
func IsUpstream(err error) bool { return isCode(err, ErrCodeUpstream) }

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsRateLimited reports whether err is a RateLimited error.
func IsRateLimited(err error) bool { return isCode(err, ErrCodeRateLimited) }

// IsInternal reports whether err is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if none.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// HTTPStatus maps an error to the status code used in JSON responses.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeValidation, ErrCodeDuplicate, ErrCodeInvalidCredential:
		return http.StatusBadRequest
	case ErrCodeInvalidToken, ErrCodeSessionInconsistent:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
