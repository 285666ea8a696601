package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// DailyProgressStore defines the interface for per-day activity
// aggregates. All numeric fields are additive: Upsert accumulates into
// the existing row rather than overwriting it, so it is safe to call
// many times per day.
type DailyProgressStore interface {
	// Upsert adds the delta's numeric fields into the row for
	// (delta.UserID, delta.Date), creating it if absent.
	Upsert(ctx context.Context, delta *domain.DailyProgress) error

	// ListSince retrieves the learner's daily rows with Date >= since,
	// most recent first. Streak recomputation reads these.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.DailyProgress, error)

	// WithTxDailyProgressStore returns a DailyProgressStore bound to the
	// provided transaction.
	WithTxDailyProgressStore(tx *sql.Tx) DailyProgressStore
}

// UserStatsStore defines the interface for learner progression state.
// Rows are created on first use and mutated only through the progression
// ledger.
type UserStatsStore interface {
	// Get retrieves a learner's progression state.
	// Returns ErrUserStatsNotFound if the learner has none yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// Create saves initial progression state for a learner.
	Create(ctx context.Context, stats *domain.UserStats) error

	// Update replaces a learner's progression state.
	// Returns ErrUserStatsNotFound if the row does not exist.
	Update(ctx context.Context, stats *domain.UserStats) error

	// WithTxUserStatsStore returns a UserStatsStore bound to the provided
	// transaction.
	WithTxUserStatsStore(tx *sql.Tx) UserStatsStore
}
