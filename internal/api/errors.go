package api

import (
	"errors"
	"net/http"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/selection"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/srs"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/progression"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/study"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// Machine-readable error kinds carried on every error response. Clients
// branch on these rather than parsing messages.
const (
	KindValidation       = "validation"
	KindNotFound         = "not_found"
	KindNoCardsInDeck    = "no_cards_in_deck"
	KindNoCardsAvailable = "no_cards_available"
	KindForbidden        = "forbidden"
	KindAlreadyCompleted = "already_completed"
	KindConflict         = "conflict"
	KindServerError      = "server_error"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, study.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, study.ErrAlreadyCompleted):
		return http.StatusConflict

	case errors.Is(err, progression.ErrShieldAlreadyArmed):
		return http.StatusConflict

	case errors.Is(err, selection.ErrNoCardsInDeck),
		errors.Is(err, selection.ErrNoCardsAvailable):
		return http.StatusUnprocessableEntity

	case errors.Is(err, study.ErrSessionNotActive),
		errors.Is(err, study.ErrNoOwner),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSelectionMethod),
		errors.Is(err, domain.ErrInvalidAnswerOutcome),
		errors.Is(err, srs.ErrInvalidDays),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToKind maps internal errors to their machine-readable kind.
func MapErrorToKind(err error) string {
	switch {
	case errors.Is(err, study.ErrForbidden):
		return KindForbidden

	case errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		return KindNotFound

	case errors.Is(err, study.ErrAlreadyCompleted):
		return KindAlreadyCompleted

	case errors.Is(err, progression.ErrShieldAlreadyArmed):
		return KindConflict

	case errors.Is(err, selection.ErrNoCardsInDeck):
		return KindNoCardsInDeck

	case errors.Is(err, selection.ErrNoCardsAvailable):
		return KindNoCardsAvailable

	case errors.Is(err, study.ErrSessionNotActive),
		errors.Is(err, study.ErrNoOwner),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSelectionMethod),
		errors.Is(err, domain.ErrInvalidAnswerOutcome),
		errors.Is(err, srs.ErrInvalidDays),
		errors.Is(err, store.ErrInvalidEntity):
		return KindValidation

	default:
		return KindServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, study.ErrForbidden):
		return "You do not own this session"

	case errors.Is(err, study.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, study.ErrSessionNotFound):
		return "Study session not found"

	case errors.Is(err, study.ErrAlreadyCompleted):
		return "Session is already completed"

	case errors.Is(err, study.ErrSessionNotActive):
		return "Session is no longer active"

	case errors.Is(err, progression.ErrShieldAlreadyArmed):
		return "Streak shield is already armed"

	case errors.Is(err, selection.ErrNoCardsInDeck):
		return "Deck has no cards to study"

	case errors.Is(err, selection.ErrNoCardsAvailable):
		return "No cards available for this session"

	case errors.Is(err, study.ErrNoOwner):
		return "Caller identity required"

	case errors.Is(err, domain.ErrInvalidSelectionMethod):
		return "Invalid selection method"

	case errors.Is(err, domain.ErrInvalidAnswerOutcome):
		return "Invalid answer outcome"

	case errors.Is(err, srs.ErrInvalidDays):
		return "Postpone days must be at least 1"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	default:
		return "An unexpected error occurred"
	}
}
