package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProgressStatus describes how far a learner has come with a card.
type ProgressStatus string

// Possible progress status values. A card is "new" before its first
// answer, "learning" once answered, and "mastered" when its review
// interval indicates stable long-term retention.
const (
	ProgressStatusNew      ProgressStatus = "new"
	ProgressStatusLearning ProgressStatus = "learning"
	ProgressStatusMastered ProgressStatus = "mastered"
)

// IsValid reports whether the status is one of the known values.
func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusNew, ProgressStatusLearning, ProgressStatusMastered:
		return true
	default:
		return false
	}
}

// Common validation errors for CardProgress
var (
	ErrEmptyProgressUserID   = errors.New("card progress user ID cannot be empty")
	ErrEmptyProgressCardID   = errors.New("card progress card ID cannot be empty")
	ErrInvalidInterval       = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor     = errors.New("ease factor must be at least 1.3")
	ErrInvalidRepetitions    = errors.New("repetitions must be greater than or equal to 0")
	ErrInvalidProgressStatus = errors.New("invalid progress status")
)

// MinEaseFactor is the floor below which a card's ease factor never drops,
// regardless of how many times it is failed.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to a card before any review.
const DefaultEaseFactor = 2.5

// CardProgress tracks a learner's spaced repetition state for a specific
// card. One row exists per (learner, card), created lazily on the first
// answer and never deleted: it is the historical record the scheduler and
// the progression ledger both read.
type CardProgress struct {
	UserID         uuid.UUID      `json:"user_id"`
	CardID         uuid.UUID      `json:"card_id"`
	Status         ProgressStatus `json:"status"`
	EaseFactor     float64        `json:"ease_factor"`
	Interval       int            `json:"interval"`    // Current interval in days
	Repetitions    int            `json:"repetitions"` // Consecutive successful repetitions
	NextReviewAt   time.Time      `json:"next_review_at"`
	TimesSeen      int            `json:"times_seen"`
	TimesCorrect   int            `json:"times_correct"`
	TimesIncorrect int            `json:"times_incorrect"`
	LastReviewedAt time.Time      `json:"last_reviewed_at"` // Zero before the first review
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewCardProgress creates fresh progress for a learner and card with
// default values. New cards are available for review immediately.
func NewCardProgress(userID, cardID uuid.UUID) (*CardProgress, error) {
	now := time.Now().UTC()
	progress := &CardProgress{
		UserID:       userID,
		CardID:       cardID,
		Status:       ProgressStatusNew,
		EaseFactor:   DefaultEaseFactor,
		Interval:     0,
		Repetitions:  0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the CardProgress has valid data.
// Returns an error if any field fails validation.
func (p *CardProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}

	if p.CardID == uuid.Nil {
		return ErrEmptyProgressCardID
	}

	if !p.Status.IsValid() {
		return ErrInvalidProgressStatus
	}

	if p.Interval < 0 {
		return ErrInvalidInterval
	}

	if p.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if p.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	return nil
}

// NeverAnsweredCorrectly reports whether the learner has yet to answer
// this card correctly. The completion path uses it to decide whether a
// correct answer newly counts toward "cards learned".
func (p *CardProgress) NeverAnsweredCorrectly() bool {
	return p.TimesCorrect == 0
}
