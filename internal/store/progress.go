package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// CardProgressStore defines the interface for per-learner card progress
// persistence. Progress rows are created lazily on first answer and never
// deleted.
type CardProgressStore interface {
	// Get retrieves progress by the combination of user ID and card ID.
	// Returns ErrCardProgressNotFound if no row exists yet.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// GetByUserAndCards retrieves the learner's progress rows for the given
	// card IDs, keyed by card ID. Cards without progress are absent from
	// the map; no error is returned for them.
	GetByUserAndCards(
		ctx context.Context,
		userID uuid.UUID,
		cardIDs []uuid.UUID,
	) (map[uuid.UUID]*domain.CardProgress, error)

	// Upsert inserts the progress row or replaces the existing one for its
	// (user, card) pair. Validation errors from the domain entity are
	// returned before any write.
	//
	// Session completion updates many rows at once and MUST run inside a
	// transaction; use WithTxCardProgressStore with store.RunInTransaction.
	Upsert(ctx context.Context, progress *domain.CardProgress) error

	// WithTxCardProgressStore returns a CardProgressStore bound to the
	// provided transaction. The transaction is created and managed by the
	// caller (typically a service).
	WithTxCardProgressStore(tx *sql.Tx) CardProgressStore
}
