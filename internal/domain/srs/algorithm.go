package srs

import (
	"math"
	"time"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease factor adjustment:
//
//	EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
//
// The result is clamped to params.MinEaseFactor. There is no upper clamp:
// a perfect grade grows the ease factor by 0.1 per review.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next review interval in days.
//
// Successful repetitions follow the SM-2 ladder: the first earns
// params.FirstInterval, the second params.SecondInterval, and later ones
// multiply the prior interval by the ease factor. A failure resets the
// interval to one day.
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality int,
	params *Params,
) int {
	if quality < params.PassThreshold {
		return 1
	}

	var interval int
	switch repetitions {
	case 0:
		interval = params.FirstInterval
	case 1:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * easeFactor))
	}

	if interval > params.MaxInterval {
		interval = params.MaxInterval
	}
	if interval < 1 {
		interval = 1
	}

	return interval
}

// calculateStatus derives the progress status after a review. Success
// promotes to mastered once the interval reaches the configured
// threshold; otherwise the card stays (or falls back to) learning. The
// demotion from mastered on failure is deliberate and visible to
// callers, since it drives "cards mastered" bookkeeping reversal.
func calculateStatus(newInterval int, success bool, params *Params) domain.ProgressStatus {
	if success && newInterval >= params.MasteredIntervalDays {
		return domain.ProgressStatusMastered
	}
	return domain.ProgressStatusLearning
}

// calculateNextProgress creates a new CardProgress with updated values
// based on the recall quality. The original is never modified; the
// returned copy carries the full post-review state including the
// cumulative seen/correct/incorrect counters.
func calculateNextProgress(
	progress *domain.CardProgress,
	quality int,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	next := *progress

	success := quality >= params.PassThreshold

	next.EaseFactor = calculateNewEaseFactor(progress.EaseFactor, quality, params)
	next.Interval = calculateNewInterval(
		progress.Interval,
		progress.Repetitions,
		progress.EaseFactor,
		quality,
		params,
	)

	if success {
		next.Repetitions = progress.Repetitions + 1
		next.TimesCorrect = progress.TimesCorrect + 1
	} else {
		next.Repetitions = 0
		next.TimesIncorrect = progress.TimesIncorrect + 1
	}

	next.TimesSeen = progress.TimesSeen + 1
	next.Status = calculateStatus(next.Interval, success, params)
	next.NextReviewAt = now.AddDate(0, 0, next.Interval)
	next.LastReviewedAt = now
	next.UpdatedAt = now

	return &next
}
