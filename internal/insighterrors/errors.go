// Package insighterrors provides sentinel and custom error types for the application.
package insighterrors

// ErrValidation represents a precondition violation.
// Use when input fails validation before any expensive work starts.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrNotFound represents a "not found" error.
// Use when a requested resource (model file, persona bundle) doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrService is the sentinel for failures of an external model service
// (embedding API, language-model API): auth, quota, timeout, malformed response.
var ErrService = &ServiceError{}

// ServiceError wraps a failure reported by (or while talking to) an external service.
type ServiceError struct {
	Service string
	Err     error
}

// NewServiceError creates a ServiceError for the named service.
func NewServiceError(service string, err error) *ServiceError {
	return &ServiceError{Service: service, Err: err}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		if e.Service != "" {
			return e.Service + ": service error"
		}

		return "service error"
	}

	if e.Service != "" {
		return e.Service + ": " + e.Err.Error()
	}

	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *ServiceError) Is(target error) bool {
	_, ok := target.(*ServiceError)

	return ok
}
