package auth

import "errors"

var (
	// ErrClosed is returned by Send when the communicator is not open. It is
	// never retried.
	ErrClosed = errors.New("auth: communicator closed")
	// ErrUnauthorized and ErrForbidden are the rejections that trigger one
	// coordinated re-login. Communicators wrap them.
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
)

// Retryable reports whether err is an authorization rejection.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
