package domain

import "errors"

var (
	// ErrInvalidInput marks any request the domain rejects before touching a collaborator.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidNumber is returned by the explicit numeric parsers for non-numeric text.
	ErrInvalidNumber       = errors.New("invalid number")
	ErrFractionalQuantity  = errors.New("quantity must be a whole number")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrSubmissionInFlight is returned while another submit holds the lock for the same key.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnsupportedEvent   = errors.New("unsupported event type")
)
