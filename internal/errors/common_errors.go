package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeFormat   ErrorType = "FORMAT"
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeService  ErrorType = "SERVICE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError creates a configuration error. Raised before any I/O.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewFormatError creates an error for a tabular source missing a required
// column or carrying an unparseable value.
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewNotFoundError creates an error for an input that cannot be read
func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), cause)
}

// NewServiceError creates an error for a failed remote completion call
func NewServiceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeService, message, cause)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err's chain contains an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

// IsConfig reports whether err is a ConfigError
func IsConfig(err error) bool { return IsType(err, ErrTypeConfig) }

// IsFormat reports whether err is a FormatError
func IsFormat(err error) bool { return IsType(err, ErrTypeFormat) }

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool { return IsType(err, ErrTypeNotFound) }

// IsService reports whether err is a ServiceError
func IsService(err error) bool { return IsType(err, ErrTypeService) }
