package errors

import (
	"errors"
	"fmt"
)

// Common error types for the frontend
var (
	// Session errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionInvalid = errors.New("session invalid")
	ErrNoSession      = errors.New("no session")

	// Plan and quota errors
	ErrFeatureNotAllowed = errors.New("feature not allowed on current plan")

	// Checkout errors
	ErrScriptLoad          = errors.New("payment SDK failed to load")
	ErrOrderCreation       = errors.New("order creation failed")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrUnknownGateway      = errors.New("unknown payment gateway")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnsupported  = errors.New("unsupported operation")
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
