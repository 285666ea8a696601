package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// PostgresDailyProgressStore implements the store.DailyProgressStore
// interface using a PostgreSQL database as the storage backend.
type PostgresDailyProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDailyProgressStore creates a new PostgreSQL implementation of
// the DailyProgressStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDailyProgressStore(db store.DBTX, logger *slog.Logger) *PostgresDailyProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDailyProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "daily_progress_store")),
	}
}

// Ensure PostgresDailyProgressStore implements store.DailyProgressStore interface
var _ store.DailyProgressStore = (*PostgresDailyProgressStore)(nil)

// Upsert implements store.DailyProgressStore.Upsert
// It adds the delta's numeric fields into the row for (user, date),
// creating the row if absent. All columns accumulate; the delta row is
// never written verbatim over an existing one.
func (s *PostgresDailyProgressStore) Upsert(ctx context.Context, delta *domain.DailyProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := delta.Validate(); err != nil {
		log.Warn("daily progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", delta.UserID.String()))
		return err
	}

	query := `
		INSERT INTO daily_progress (user_id, date, cards_studied, cards_learned,
			time_spent_seconds, xp_earned, sessions_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, date) DO UPDATE SET
			cards_studied = daily_progress.cards_studied + EXCLUDED.cards_studied,
			cards_learned = daily_progress.cards_learned + EXCLUDED.cards_learned,
			time_spent_seconds = daily_progress.time_spent_seconds + EXCLUDED.time_spent_seconds,
			xp_earned = daily_progress.xp_earned + EXCLUDED.xp_earned,
			sessions_completed = daily_progress.sessions_completed + EXCLUDED.sessions_completed,
			updated_at = EXCLUDED.updated_at
	`

	day := domain.DateOf(delta.Date)
	now := time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		query,
		delta.UserID,
		day,
		delta.CardsStudied,
		delta.CardsLearned,
		delta.TimeSpentSeconds,
		delta.XPEarned,
		delta.SessionsCompleted,
		now,
		now,
	)
	if err != nil {
		log.Error("failed to upsert daily progress",
			slog.String("error", err.Error()),
			slog.String("user_id", delta.UserID.String()),
			slog.Time("date", day))
		return fmt.Errorf("failed to upsert daily progress: %w", err)
	}

	log.Debug("daily progress upserted",
		slog.String("user_id", delta.UserID.String()),
		slog.Time("date", day),
		slog.Int("cards_studied", delta.CardsStudied),
		slog.Int("xp_earned", delta.XPEarned))
	return nil
}

// ListSince implements store.DailyProgressStore.ListSince
// It retrieves the learner's daily rows with date >= since, most recent first.
func (s *PostgresDailyProgressStore) ListSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]*domain.DailyProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, date, cards_studied, cards_learned, time_spent_seconds,
		       xp_earned, sessions_completed, created_at, updated_at
		FROM daily_progress
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.DateOf(since))
	if err != nil {
		log.Error("failed to list daily progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list daily progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	days := make([]*domain.DailyProgress, 0)
	for rows.Next() {
		var day domain.DailyProgress
		err := rows.Scan(
			&day.UserID,
			&day.Date,
			&day.CardsStudied,
			&day.CardsLearned,
			&day.TimeSpentSeconds,
			&day.XPEarned,
			&day.SessionsCompleted,
			&day.CreatedAt,
			&day.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily progress row: %w", err)
		}
		// Normalize to UTC midnight regardless of the column's session timezone.
		day.Date = domain.DateOf(day.Date)
		days = append(days, &day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily progress rows: %w", err)
	}

	return days, nil
}

// WithTxDailyProgressStore implements store.DailyProgressStore.WithTxDailyProgressStore
// It returns a DailyProgressStore bound to the provided transaction.
func (s *PostgresDailyProgressStore) WithTxDailyProgressStore(tx *sql.Tx) store.DailyProgressStore {
	return &PostgresDailyProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
