package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// Verify interface compliance at compile time
var _ Ledger = (*ledgerImpl)(nil)

// ledgerImpl implements the Ledger interface.
type ledgerImpl struct {
	statsStore store.UserStatsStore
	dailyStore store.DailyProgressStore

	baseLevelXP        int
	levelGrowthPercent int

	logger *slog.Logger
}

// NewLedger creates a new progression Ledger.
// baseLevelXP is the XP needed to go from level 1 to level 2;
// levelGrowthPercent is how much each subsequent threshold grows.
func NewLedger(
	statsStore store.UserStatsStore,
	dailyStore store.DailyProgressStore,
	baseLevelXP int,
	levelGrowthPercent int,
	logger *slog.Logger,
) Ledger {
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if dailyStore == nil {
		panic("dailyStore cannot be nil")
	}
	if baseLevelXP <= 0 {
		panic("baseLevelXP must be positive")
	}
	if levelGrowthPercent <= 0 {
		panic("levelGrowthPercent must be positive")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ledgerImpl{
		statsStore:         statsStore,
		dailyStore:         dailyStore,
		baseLevelXP:        baseLevelXP,
		levelGrowthPercent: levelGrowthPercent,
		logger:             logger.With(slog.String("component", "progression_ledger")),
	}
}

// GetSnapshot implements Ledger.GetSnapshot.
// It retrieves the learner's progression state, creating initial state on
// first use.
func (l *ledgerImpl) GetSnapshot(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	stats, err := l.statsStore.Get(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, store.ErrUserStatsNotFound) {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	stats, err = domain.NewUserStats(userID, l.baseLevelXP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user stats: %w", err)
	}

	if err := l.statsStore.Create(ctx, stats); err != nil {
		// A concurrent request may have created the row first.
		if errors.Is(err, store.ErrDuplicate) {
			return l.statsStore.Get(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create user stats: %w", err)
	}

	log.Info("initialized progression state", slog.String("user_id", userID.String()))
	return stats, nil
}

// ApplyXP implements Ledger.ApplyXP.
// It adds earned XP and processes level-ups. The threshold grows by the
// configured percentage each level, using integer arithmetic so the
// progression is deterministic.
func (l *ledgerImpl) ApplyXP(stats *domain.UserStats, xp int) int {
	if xp <= 0 {
		return 0
	}

	stats.CurrentXP += xp
	stats.TotalXP += xp

	levelsGained := 0
	for stats.CurrentXP >= stats.NextLevelXP {
		stats.CurrentXP -= stats.NextLevelXP
		stats.Level++
		levelsGained++
		stats.NextLevelXP = stats.NextLevelXP * (100 + l.levelGrowthPercent) / 100
	}

	if levelsGained > 0 {
		l.logger.Info("level up",
			slog.String("user_id", stats.UserID.String()),
			slog.Int("new_level", stats.Level),
			slog.Int("levels_gained", levelsGained))
	}

	return levelsGained
}

// RecordDaily implements Ledger.RecordDaily.
func (l *ledgerImpl) RecordDaily(ctx context.Context, delta *domain.DailyProgress) error {
	if err := l.dailyStore.Upsert(ctx, delta); err != nil {
		return fmt.Errorf("failed to record daily progress: %w", err)
	}
	return nil
}

// RecomputeStreak implements Ledger.RecomputeStreak.
// It derives the streak from the daily history rather than incrementing a
// counter, so repeated calls on the same day are harmless.
func (l *ledgerImpl) RecomputeStreak(
	ctx context.Context,
	stats *domain.UserStats,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	days, err := l.dailyStore.ListSince(ctx, stats.UserID, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to load daily history: %w", err)
	}

	streak, shieldConsumed := ComputeStreak(days, now, stats.StreakShieldArmed)

	stats.CurrentStreak = streak
	if shieldConsumed {
		stats.StreakShieldArmed = false
		log.Info("streak shield consumed",
			slog.String("user_id", stats.UserID.String()),
			slog.Int("streak", streak))
	}
	if streak > stats.LongestStreak {
		stats.LongestStreak = streak
	}

	return nil
}

// ArmStreakShield implements Ledger.ArmStreakShield.
func (l *ledgerImpl) ArmStreakShield(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	stats, err := l.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if stats.StreakShieldArmed {
		return nil, ErrShieldAlreadyArmed
	}

	stats.StreakShieldArmed = true
	stats.UpdatedAt = time.Now().UTC()

	if err := l.statsStore.Update(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to arm streak shield: %w", err)
	}

	log.Info("streak shield armed", slog.String("user_id", userID.String()))
	return stats, nil
}

// SaveSnapshot implements Ledger.SaveSnapshot.
func (l *ledgerImpl) SaveSnapshot(ctx context.Context, stats *domain.UserStats) error {
	stats.UpdatedAt = time.Now().UTC()
	if err := l.statsStore.Update(ctx, stats); err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}

// WithTx implements Ledger.WithTx.
func (l *ledgerImpl) WithTx(tx *sql.Tx) Ledger {
	return &ledgerImpl{
		statsStore:         l.statsStore.WithTxUserStatsStore(tx),
		dailyStore:         l.dailyStore.WithTxDailyProgressStore(tx),
		baseLevelXP:        l.baseLevelXP,
		levelGrowthPercent: l.levelGrowthPercent,
		logger:             l.logger,
	}
}
