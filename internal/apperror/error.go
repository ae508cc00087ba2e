package apperror

import "errors"

// Sentinel errors for failures raised by the security layer rather than by
// business logic. The interceptor maps each to its fixed response.
var (
	// ErrBadCredentials indicates a failed login attempt.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrAuthentication indicates a protected resource was reached without identity.
	ErrAuthentication = errors.New("authentication required")
	// ErrAccessDenied indicates an authenticated caller without sufficient role.
	ErrAccessDenied = errors.New("access denied")
)

// Error carries one taxonomy Kind through an error chain.
type Error struct {
	Kind Kind
}

// New wraps a taxonomy Kind into an error.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Error returns the symbolic name of the kind.
func (e *Error) Error() string {
	return string(e.Kind)
}

// Status returns the HTTP status declared for the kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// AsError extracts an *Error from err, if one is present in its chain.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
