package courier

import (
	"errors"
	"fmt"
)

// Error represents a failure from a courier provider or from request
// normalization, classified by the sentinel it wraps.
type Error struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s error (%s): %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Sentinel errors classifying the failure taxonomy. Constructors below wrap
// these, so callers classify with errors.Is.
var (
	// ErrValidation indicates a malformed or incomplete ShipmentRequest.
	// Requests failing validation are never sent upstream.
	ErrValidation = errors.New("invalid shipment request")

	// ErrAuth indicates provider credentials were rejected, or a token
	// expired beyond refresh.
	ErrAuth = errors.New("provider authentication failed")

	// ErrNotFound indicates the AWB or order is unknown to the provider.
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates an upstream call exceeded its deadline.
	ErrTimeout = errors.New("provider deadline exceeded")

	// ErrProvider indicates the provider returned a business or HTTP error.
	ErrProvider = errors.New("provider error")

	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = errors.New("provider not registered")

	// ErrTerminalStatus indicates a status transition was attempted on a
	// shipment already in a terminal state.
	ErrTerminalStatus = errors.New("shipment in terminal status")

	// ErrUnauthorized indicates the caller identity is not allowed to
	// perform the operation.
	ErrUnauthorized = errors.New("caller not authorized")
)

// NewValidationError reports a request that failed normalization checks.
func NewValidationError(message string) *Error {
	return &Error{Code: "VALIDATION", Message: message, Cause: ErrValidation}
}

// NewAuthError reports rejected provider credentials.
func NewAuthError(provider, message string) *Error {
	return &Error{Provider: provider, Code: "AUTH", Message: message, Cause: ErrAuth}
}

// NewNotFoundError reports an AWB unknown to the provider.
func NewNotFoundError(provider, message string) *Error {
	return &Error{Provider: provider, Code: "NOT_FOUND", Message: message, Cause: ErrNotFound}
}

// NewTimeoutError reports an upstream deadline hit.
func NewTimeoutError(provider, message string) *Error {
	return &Error{Provider: provider, Code: "TIMEOUT", Message: message, Cause: ErrTimeout}
}

// NewStatusConflictError reports an operation rejected because the shipment
// is in a terminal or incompatible lifecycle status.
func NewStatusConflictError(provider, message string) *Error {
	return &Error{Provider: provider, Code: "STATUS_CONFLICT", Message: message, Cause: ErrTerminalStatus}
}

// NewProviderError reports an upstream business or HTTP failure.
func NewProviderError(provider, code, message string) *Error {
	return &Error{Provider: provider, Code: code, Message: message, Cause: ErrProvider}
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsNotFound reports whether err is an unknown-AWB/order failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
