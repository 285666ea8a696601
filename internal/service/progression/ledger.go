// Package progression maintains a learner's durable reward state: XP and
// levels, daily activity aggregates, and the study streak with its
// one-day shield. All writes flow through the Ledger so the invariants
// (additive daily rows, streak recomputed from source data, lifetime XP
// never decreasing) hold no matter which caller records activity.
package progression

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// Common error types for the progression ledger
var (
	// ErrShieldAlreadyArmed indicates the learner's streak shield is
	// already armed; only one can be held at a time.
	ErrShieldAlreadyArmed = errors.New("streak shield already armed")
)

// Ledger provides methods for reading and mutating a learner's
// progression state.
type Ledger interface {
	// GetSnapshot retrieves the learner's progression state, creating
	// initial level-1 state on first use.
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// ApplyXP adds earned XP to the stats, processing any level-ups.
	// Multiple levels can be gained from a single award. The stats are
	// mutated in place; the caller persists them. Returns the number of
	// levels gained.
	ApplyXP(stats *domain.UserStats, xp int) int

	// RecordDaily accumulates the delta's numeric fields into the
	// learner's row for the delta's calendar day.
	RecordDaily(ctx context.Context, delta *domain.DailyProgress) error

	// RecomputeStreak recalculates the current streak from the daily
	// activity history and updates the stats in place, consuming the
	// streak shield if it bridged a missed day. The caller persists the
	// stats.
	RecomputeStreak(ctx context.Context, stats *domain.UserStats, now time.Time) error

	// ArmStreakShield arms the learner's one-day streak protection.
	// Returns ErrShieldAlreadyArmed if one is already held.
	ArmStreakShield(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// SaveSnapshot persists mutated stats.
	SaveSnapshot(ctx context.Context, stats *domain.UserStats) error

	// WithTx returns a Ledger whose stores are bound to the provided
	// transaction. Session completion uses this to make progression
	// updates atomic with the session's own writes.
	WithTx(tx *sql.Tx) Ledger
}

// ComputeStreak counts consecutive active days ending at today, walking
// backwards through the daily history. A day counts when it has any
// recorded activity. Today not having activity yet does not break the
// streak; the day is simply skipped, since it is not over.
//
// When shieldArmed is true, exactly one missed day may be bridged: the
// gap day counts as part of the run, so the streak measures the span
// including the protected day. The second return value reports whether
// the shield was actually consumed this way.
func ComputeStreak(
	days []*domain.DailyProgress,
	now time.Time,
	shieldArmed bool,
) (int, bool) {
	active := make(map[time.Time]bool, len(days))
	for _, d := range days {
		if d.HasActivity() {
			active[domain.DateOf(d.Date)] = true
		}
	}

	day := domain.DateOf(now)
	if !active[day] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	shieldConsumed := false
	for {
		if active[day] {
			streak++
			day = day.AddDate(0, 0, -1)
			continue
		}

		// A single gap can be bridged, but only when there is an active
		// day on the far side; burning the shield on a dead trail would
		// waste it.
		if shieldArmed && !shieldConsumed {
			prev := day.AddDate(0, 0, -1)
			if active[prev] {
				shieldConsumed = true
				streak++
				day = prev
				continue
			}
		}

		break
	}

	return streak, shieldConsumed
}
