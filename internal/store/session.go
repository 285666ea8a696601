package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// StudySessionStore defines the interface for study session persistence.
// The session row is the single source of truth for resumability: every
// field needed to reconstruct the session is persisted here, including
// the frozen card order chosen at creation.
type StudySessionStore interface {
	// Create saves a new session.
	// Returns validation errors from the domain entity if data is invalid.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// Update replaces the session's mutable state (position, answers,
	// streak, XP, duration, status, tallies, timestamps).
	// Returns ErrSessionNotFound if the session does not exist.
	//
	// Autosave deltas are computed against the previously persisted row,
	// so Update MUST run in the same transaction as the read that
	// produced the delta; use WithTxStudySessionStore.
	Update(ctx context.Context, session *domain.StudySession) error

	// ListActiveCardIDs returns the set of card IDs appearing in the
	// learner's other active sessions, used to exclude cards already
	// being studied elsewhere.
	ListActiveCardIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error)

	// WithTxStudySessionStore returns a StudySessionStore bound to the
	// provided transaction.
	WithTxStudySessionStore(tx *sql.Tx) StudySessionStore
}
