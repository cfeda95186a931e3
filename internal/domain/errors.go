package domain

import "errors"

var (
	// ErrInvalidArgument indicates malformed input such as a bad percentage,
	// an empty cart or a non-positive quantity.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConfigured indicates the payment processor has not been set up.
	ErrNotConfigured = errors.New("checkout unavailable: payment provider not configured")
	// ErrUnauthorized indicates the caller's role does not permit the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition indicates an illegal order or payment state move.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTotalMismatch indicates the submitted total disagrees with the line items.
	ErrTotalMismatch = errors.New("total mismatch")
	// ErrProviderTimeout indicates the payment provider did not answer in time.
	ErrProviderTimeout = errors.New("payment provider timeout")
	// ErrProviderError indicates the payment provider was unreachable or rejected the call.
	ErrProviderError = errors.New("payment provider error")
)
