package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserStats validation errors
var (
	ErrEmptyStatsUserID = errors.New("user stats user ID cannot be empty")
	ErrInvalidLevel     = errors.New("level must be at least 1")
	ErrInvalidXP        = errors.New("XP values cannot be negative")
)

// UserStats is a learner's durable progression state: level, XP within
// the level, the threshold for the next level, streaks and lifetime
// aggregates. It is mutated only through the progression ledger.
type UserStats struct {
	UserID uuid.UUID `json:"user_id"`

	Level       int `json:"level"`
	CurrentXP   int `json:"current_xp"`    // XP accumulated within the current level
	NextLevelXP int `json:"next_level_xp"` // Threshold to reach the next level
	TotalXP     int `json:"total_xp"`      // Lifetime XP, never decreases

	CurrentStreak     int  `json:"current_streak"`
	LongestStreak     int  `json:"longest_streak"`
	StreakShieldArmed bool `json:"streak_shield_armed"`

	CardsLearned     int `json:"cards_learned"`
	CardsMastered    int `json:"cards_mastered"`
	DecksCompleted   int `json:"decks_completed"`
	TimeSpentSeconds int `json:"time_spent_seconds"`
	TotalAnswers     int `json:"total_answers"`
	CorrectAnswers   int `json:"correct_answers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserStats creates progression state for a learner at level 1 with
// the given XP threshold for level 2.
func NewUserStats(userID uuid.UUID, baseLevelXP int) (*UserStats, error) {
	now := time.Now().UTC()
	stats := &UserStats{
		UserID:      userID,
		Level:       1,
		CurrentXP:   0,
		NextLevelXP: baseLevelXP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := stats.Validate(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Validate checks if the UserStats has valid data.
func (s *UserStats) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStatsUserID
	}

	if s.Level < 1 {
		return ErrInvalidLevel
	}

	if s.CurrentXP < 0 || s.NextLevelXP <= 0 || s.TotalXP < 0 {
		return ErrInvalidXP
	}

	return nil
}
