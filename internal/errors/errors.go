package errors

import (
	"errors"
	"fmt"
)

// Common error types for the club server
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Upstream provider errors (token exchange, userinfo)
	ErrUpstream = errors.New("upstream provider error")

	// Storage errors
	ErrPersistence = errors.New("persistence error")
	ErrNotFound    = errors.New("not found")

	// Session errors
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNoCookie             = fmt.Errorf("%w: no session cookie", ErrUnauthorized)
	ErrInvalidSessionFormat = fmt.Errorf("%w: invalid session format", ErrUnauthorized)
	ErrNotAdmin             = fmt.Errorf("%w: admin access required", ErrUnauthorized)

	// Login flow errors
	ErrLoginExpired = fmt.Errorf("%w: login expired or unknown state", ErrNotFound)
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps err so that it matches both kind and err.
func Join(kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
