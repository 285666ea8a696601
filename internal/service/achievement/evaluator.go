// Package achievement evaluates which achievements a finished or
// in-flight study session unlocks. The engine treats the evaluator as a
// collaborator: at session completion the call participates in the
// completion transaction, while after an autosave it is best-effort only.
package achievement

import (
	"context"

	"github.com/google/uuid"
)

// SessionMetrics is the snapshot of a session the evaluator judges.
// Score is a 0..100 percentage; CompletedAtHour is the local hour of day
// the session finished (0..23).
type SessionMetrics struct {
	TotalCards      int
	CorrectCount    int
	Score           int
	SessionXP       int
	DurationSeconds int
	CompletedAtHour int
}

// Evaluator decides which achievement IDs a session unlocks.
type Evaluator interface {
	// Evaluate returns the IDs of achievements unlocked by the given
	// session metrics. An empty slice means nothing new was unlocked.
	Evaluate(ctx context.Context, learnerID uuid.UUID, metrics SessionMetrics) ([]string, error)
}

// Achievement IDs awarded by the default rule set.
const (
	PerfectSession = "perfect_session"
	SpeedRun       = "speed_run"
	NightOwl       = "night_owl"
	EarlyBird      = "early_bird"
	Marathon       = "marathon"
	BigSession     = "big_session"
)

// rule pairs an achievement ID with its unlock predicate.
type rule struct {
	id    string
	match func(m SessionMetrics) bool
}

// defaultEvaluator applies a fixed rule set to session metrics. It is
// stateless: deduplication against previously unlocked achievements is
// the caller's concern.
type defaultEvaluator struct {
	rules []rule
}

// NewDefaultEvaluator creates an Evaluator with the standard rule set.
func NewDefaultEvaluator() Evaluator {
	return &defaultEvaluator{
		rules: []rule{
			{PerfectSession, func(m SessionMetrics) bool {
				return m.TotalCards > 0 && m.Score == 100
			}},
			{SpeedRun, func(m SessionMetrics) bool {
				// Under five seconds per card across a real session.
				return m.TotalCards >= 10 && m.DurationSeconds > 0 &&
					m.DurationSeconds < m.TotalCards*5
			}},
			{NightOwl, func(m SessionMetrics) bool {
				return m.CompletedAtHour >= 0 && m.CompletedAtHour < 5
			}},
			{EarlyBird, func(m SessionMetrics) bool {
				return m.CompletedAtHour >= 5 && m.CompletedAtHour < 8
			}},
			{Marathon, func(m SessionMetrics) bool {
				return m.DurationSeconds >= 1800
			}},
			{BigSession, func(m SessionMetrics) bool {
				return m.TotalCards >= 50
			}},
		},
	}
}

// Evaluate implements Evaluator.Evaluate.
func (e *defaultEvaluator) Evaluate(
	_ context.Context,
	_ uuid.UUID,
	metrics SessionMetrics,
) ([]string, error) {
	unlocked := make([]string, 0)
	for _, r := range e.rules {
		if r.match(metrics) {
			unlocked = append(unlocked, r.id)
		}
	}
	return unlocked, nil
}
