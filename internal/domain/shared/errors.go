package shared

import "errors"

// Error codes carried by DomainError
const (
	CodeNotFound     = "NOT_FOUND"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details holds field level messages for validation failures
	Details map[string]string `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches on code so callers can use errors.Is against the common errors below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	clone := *e
	clone.cause = cause
	return &clone
}

func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

func NewBadRequestError(message string) *DomainError {
	return NewDomainError(CodeBadRequest, message)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewDomainError(CodeUnauthorized, message)
}

func NewForbiddenError(message string) *DomainError {
	return NewDomainError(CodeForbidden, message)
}

func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewValidationError creates a validation error with per-field messages
func NewValidationError(message string, details map[string]string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Details: details}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{Code: CodeInternal, Message: message, cause: cause}
}

// Kind sentinels, compared by code only.
var (
	ErrNotFound     = &DomainError{Code: CodeNotFound}
	ErrBadRequest   = &DomainError{Code: CodeBadRequest}
	ErrUnauthorized = &DomainError{Code: CodeUnauthorized}
	ErrForbidden    = &DomainError{Code: CodeForbidden}
	ErrValidation   = &DomainError{Code: CodeValidation}
	ErrConflict     = &DomainError{Code: CodeConflict}
	ErrInternal     = &DomainError{Code: CodeInternal}
)

// ErrorCode returns the DomainError code in err's chain, or CodeInternal.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
