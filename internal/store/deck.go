package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// DeckStore defines the read-only view of decks the study engine needs.
// Deck management belongs to the CRUD subsystem; the engine only verifies
// existence and ownership.
type DeckStore interface {
	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)
}

// CardStore defines the read-only view of cards the study engine needs.
type CardStore interface {
	// ListByDeck retrieves a deck's non-deleted cards ordered by position.
	// An existing deck with no cards yields an empty slice, not an error.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// GetByIDs retrieves the cards with the given IDs, in the order the
	// IDs are listed. Soft-deleted cards are included so historical
	// sessions can still render their working set. Unknown IDs are
	// silently skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error)
}
