package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// PostgresCardProgressStore implements the store.CardProgressStore
// interface using a PostgreSQL database as the storage backend.
type PostgresCardProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardProgressStore creates a new PostgreSQL implementation of
// the CardProgressStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardProgressStore(db store.DBTX, logger *slog.Logger) *PostgresCardProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_progress_store")),
	}
}

// Ensure PostgresCardProgressStore implements store.CardProgressStore interface
var _ store.CardProgressStore = (*PostgresCardProgressStore)(nil)

const cardProgressColumns = `user_id, card_id, status, ease_factor, interval_days,
	repetitions, next_review_at, times_seen, times_correct, times_incorrect,
	last_reviewed_at, created_at, updated_at`

// Get implements store.CardProgressStore.Get
// It retrieves progress by the combination of user ID and card ID.
// Returns store.ErrCardProgressNotFound if no row exists yet.
func (s *PostgresCardProgressStore) Get(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + cardProgressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2
	`

	progress, err := scanCardProgress(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card progress not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrCardProgressNotFound
		}

		log.Error("failed to get card progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to get card progress: %w", err)
	}

	return progress, nil
}

// GetByUserAndCards implements store.CardProgressStore.GetByUserAndCards
// It retrieves the learner's progress rows for the given card IDs,
// keyed by card ID. Cards without progress are absent from the map.
func (s *PostgresCardProgressStore) GetByUserAndCards(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
) (map[uuid.UUID]*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[uuid.UUID]*domain.CardProgress, len(cardIDs))
	if len(cardIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + cardProgressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = ANY($2)
	`

	rows, err := s.db.QueryContext(ctx, query, userID, uuidArray(cardIDs))
	if err != nil {
		log.Error("failed to get card progress batch",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("card_count", len(cardIDs)))
		return nil, fmt.Errorf("failed to get card progress batch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		progress, err := scanCardProgress(rows)
		if err != nil {
			log.Error("failed to scan card progress row",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, err
		}
		result[progress.CardID] = progress
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card progress rows: %w", err)
	}

	return result, nil
}

// Upsert implements store.CardProgressStore.Upsert
// It inserts the progress row or replaces the existing one for its
// (user, card) pair. Validation errors from the domain entity are
// returned before any write.
func (s *PostgresCardProgressStore) Upsert(
	ctx context.Context,
	progress *domain.CardProgress,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("card progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	query := `
		INSERT INTO card_progress (user_id, card_id, status, ease_factor,
			interval_days, repetitions, next_review_at, times_seen,
			times_correct, times_incorrect, last_reviewed_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			status = EXCLUDED.status,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			next_review_at = EXCLUDED.next_review_at,
			times_seen = EXCLUDED.times_seen,
			times_correct = EXCLUDED.times_correct,
			times_incorrect = EXCLUDED.times_incorrect,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = EXCLUDED.updated_at
	`

	var lastReviewedAt sql.NullTime
	if !progress.LastReviewedAt.IsZero() {
		lastReviewedAt = sql.NullTime{Time: progress.LastReviewedAt, Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.CardID,
		progress.Status,
		progress.EaseFactor,
		progress.Interval,
		progress.Repetitions,
		progress.NextReviewAt,
		progress.TimesSeen,
		progress.TimesCorrect,
		progress.TimesIncorrect,
		lastReviewedAt,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during card progress upsert",
				slog.String("error", err.Error()),
				slog.String("user_id", progress.UserID.String()),
				slog.String("card_id", progress.CardID.String()))
			return fmt.Errorf("%w: card with ID %s not found",
				store.ErrInvalidEntity, progress.CardID)
		}

		log.Error("failed to upsert card progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("card_id", progress.CardID.String()))
		return fmt.Errorf("failed to upsert card progress: %w", err)
	}

	log.Debug("card progress upserted",
		slog.String("user_id", progress.UserID.String()),
		slog.String("card_id", progress.CardID.String()),
		slog.String("status", string(progress.Status)),
		slog.Int("interval_days", progress.Interval))
	return nil
}

// WithTxCardProgressStore implements store.CardProgressStore.WithTxCardProgressStore
// It returns a CardProgressStore bound to the provided transaction.
func (s *PostgresCardProgressStore) WithTxCardProgressStore(tx *sql.Tx) store.CardProgressStore {
	return &PostgresCardProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanCardProgress reads one card progress row including nullable columns.
func scanCardProgress(row rowScanner) (*domain.CardProgress, error) {
	var (
		progress       domain.CardProgress
		lastReviewedAt sql.NullTime
	)

	err := row.Scan(
		&progress.UserID,
		&progress.CardID,
		&progress.Status,
		&progress.EaseFactor,
		&progress.Interval,
		&progress.Repetitions,
		&progress.NextReviewAt,
		&progress.TimesSeen,
		&progress.TimesCorrect,
		&progress.TimesIncorrect,
		&lastReviewedAt,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewedAt.Valid {
		progress.LastReviewedAt = lastReviewedAt.Time
	}

	return &progress, nil
}
