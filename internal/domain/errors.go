package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidCardType is returned when a card type is not one of the
	// supported variants.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrInvalidSelectionMethod is returned when a session selection method
	// is not recognized.
	ErrInvalidSelectionMethod = errors.New("invalid selection method")

	// ErrInvalidAnswerOutcome is returned when a per-card answer outcome is
	// not one of correct, incorrect or skipped.
	ErrInvalidAnswerOutcome = errors.New("invalid answer outcome")

	// ErrInvalidSessionStatus is returned when a session status is not valid.
	ErrInvalidSessionStatus = errors.New("invalid session status")

	// ErrInvalidQuality is returned when a recall quality grade is outside 0..5.
	ErrInvalidQuality = errors.New("recall quality must be between 0 and 5")
)
