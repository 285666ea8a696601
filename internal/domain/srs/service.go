package srs

import (
	"errors"
	"time"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("card progress cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations.
type Service interface {
	// CalculateNextReview computes new progress based on a recall quality
	// grade (0..5). The input progress is not modified.
	CalculateNextReview(
		progress *domain.CardProgress,
		quality int,
		now time.Time,
	) (*domain.CardProgress, error)

	// PostponeReview pushes the next review time forward by a specified
	// number of days without changing the memory state.
	PostponeReview(
		progress *domain.CardProgress,
		days int,
		now time.Time,
	) (*domain.CardProgress, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface.
func (s *defaultService) CalculateNextReview(
	progress *domain.CardProgress,
	quality int,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if quality < 0 || quality > 5 {
		return nil, domain.ErrInvalidQuality
	}

	return calculateNextProgress(progress, quality, now, s.params), nil
}

// PostponeReview implements the Service interface.
func (s *defaultService) PostponeReview(
	progress *domain.CardProgress,
	days int,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := *progress
	next.NextReviewAt = progress.NextReviewAt.AddDate(0, 0, days)
	next.UpdatedAt = now

	return &next, nil
}
