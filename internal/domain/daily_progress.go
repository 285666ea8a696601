package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DailyProgress validation errors
var (
	ErrEmptyDailyUserID = errors.New("daily progress user ID cannot be empty")
	ErrEmptyDailyDate   = errors.New("daily progress date cannot be zero")
)

// DailyProgress is one row per (learner, calendar day) of cumulative
// activity. Fields are strictly additive: upserts accumulate, never
// overwrite. Time is stored at second granularity so short autosave
// intervals are not lost to rounding. Streak computation reads these
// rows rather than an incrementally maintained counter, so it is always
// correct from source data.
type DailyProgress struct {
	UserID            uuid.UUID `json:"user_id"`
	Date              time.Time `json:"date"` // Calendar day, UTC midnight
	CardsStudied      int       `json:"cards_studied"`
	CardsLearned      int       `json:"cards_learned"` // Cards answered correctly for the first time
	TimeSpentSeconds  int       `json:"time_spent_seconds"`
	XPEarned          int       `json:"xp_earned"`
	SessionsCompleted int       `json:"sessions_completed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks if the DailyProgress has valid data.
func (d *DailyProgress) Validate() error {
	if d.UserID == uuid.Nil {
		return ErrEmptyDailyUserID
	}

	if d.Date.IsZero() {
		return ErrEmptyDailyDate
	}

	return nil
}

// HasActivity reports whether the day counts toward the learner's streak.
func (d *DailyProgress) HasActivity() bool {
	return d.CardsStudied > 0 || d.TimeSpentSeconds > 0 || d.SessionsCompleted > 0
}

// DateOf truncates a timestamp to its UTC calendar day, the canonical
// key for daily progress rows.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
