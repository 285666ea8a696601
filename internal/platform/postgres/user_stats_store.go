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

// PostgresUserStatsStore implements the store.UserStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStatsStore creates a new PostgreSQL implementation of the
// UserStatsStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStatsStore(db store.DBTX, logger *slog.Logger) *PostgresUserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_stats_store")),
	}
}

// Ensure PostgresUserStatsStore implements store.UserStatsStore interface
var _ store.UserStatsStore = (*PostgresUserStatsStore)(nil)

// Get implements store.UserStatsStore.Get
// It retrieves a learner's progression state.
// Returns store.ErrUserStatsNotFound if the learner has none yet.
func (s *PostgresUserStatsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, level, current_xp, next_level_xp, total_xp,
		       current_streak, longest_streak, streak_shield_armed,
		       cards_learned, cards_mastered, decks_completed,
		       time_spent_seconds, total_answers, correct_answers,
		       created_at, updated_at
		FROM user_stats
		WHERE user_id = $1
	`

	var stats domain.UserStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.Level,
		&stats.CurrentXP,
		&stats.NextLevelXP,
		&stats.TotalXP,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.StreakShieldArmed,
		&stats.CardsLearned,
		&stats.CardsMastered,
		&stats.DecksCompleted,
		&stats.TimeSpentSeconds,
		&stats.TotalAnswers,
		&stats.CorrectAnswers,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user stats not found", slog.String("user_id", userID.String()))
			return nil, store.ErrUserStatsNotFound
		}

		log.Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return &stats, nil
}

// Create implements store.UserStatsStore.Create
// It saves initial progression state for a learner.
// Returns store.ErrDuplicate if the learner already has stats.
func (s *PostgresUserStatsStore) Create(ctx context.Context, stats *domain.UserStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("user stats validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return err
	}

	query := `
		INSERT INTO user_stats (user_id, level, current_xp, next_level_xp,
			total_xp, current_streak, longest_streak, streak_shield_armed,
			cards_learned, cards_mastered, decks_completed, time_spent_seconds,
			total_answers, correct_answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		stats.UserID,
		stats.Level,
		stats.CurrentXP,
		stats.NextLevelXP,
		stats.TotalXP,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.StreakShieldArmed,
		stats.CardsLearned,
		stats.CardsMastered,
		stats.DecksCompleted,
		stats.TimeSpentSeconds,
		stats.TotalAnswers,
		stats.CorrectAnswers,
		stats.CreatedAt,
		stats.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("user stats already exist",
				slog.String("user_id", stats.UserID.String()))
			return fmt.Errorf("%w: user stats for %s",
				store.ErrDuplicate, stats.UserID)
		}

		log.Error("failed to create user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return fmt.Errorf("failed to create user stats: %w", err)
	}

	log.Info("user stats created", slog.String("user_id", stats.UserID.String()))
	return nil
}

// Update implements store.UserStatsStore.Update
// It replaces a learner's progression state.
// Returns store.ErrUserStatsNotFound if the row does not exist.
func (s *PostgresUserStatsStore) Update(ctx context.Context, stats *domain.UserStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("user stats validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return err
	}

	query := `
		UPDATE user_stats
		SET level = $2,
		    current_xp = $3,
		    next_level_xp = $4,
		    total_xp = $5,
		    current_streak = $6,
		    longest_streak = $7,
		    streak_shield_armed = $8,
		    cards_learned = $9,
		    cards_mastered = $10,
		    decks_completed = $11,
		    time_spent_seconds = $12,
		    total_answers = $13,
		    correct_answers = $14,
		    updated_at = $15
		WHERE user_id = $1
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		stats.UserID,
		stats.Level,
		stats.CurrentXP,
		stats.NextLevelXP,
		stats.TotalXP,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.StreakShieldArmed,
		stats.CardsLearned,
		stats.CardsMastered,
		stats.DecksCompleted,
		stats.TimeSpentSeconds,
		stats.TotalAnswers,
		stats.CorrectAnswers,
		stats.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return fmt.Errorf("failed to update user stats: %w", err)
	}

	if err := CheckRowsAffected(result, "user stats"); err != nil {
		log.Debug("user stats not found during update",
			slog.String("user_id", stats.UserID.String()))
		return store.ErrUserStatsNotFound
	}

	log.Debug("user stats updated",
		slog.String("user_id", stats.UserID.String()),
		slog.Int("level", stats.Level),
		slog.Int("total_xp", stats.TotalXP))
	return nil
}

// WithTxUserStatsStore implements store.UserStatsStore.WithTxUserStatsStore
// It returns a UserStatsStore bound to the provided transaction.
func (s *PostgresUserStatsStore) WithTxUserStatsStore(tx *sql.Tx) store.UserStatsStore {
	return &PostgresUserStatsStore{
		db:     tx,
		logger: s.logger,
	}
}
