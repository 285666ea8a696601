// Package study implements the session lifecycle: create, resume,
// autosave, complete and abandon. Sessions move from active to exactly
// one terminal state, and the two write paths that credit progression
// (periodic autosave and terminal completion) reconcile through deltas
// against the persisted session snapshot so nothing is ever counted
// twice.
package study

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// Common error types for the study service
var (
	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrForbidden indicates the session belongs to a different learner.
	ErrForbidden = errors.New("session not owned by caller")

	// ErrAlreadyCompleted guards the terminal transition: completing a
	// session twice returns this instead of re-applying side effects.
	ErrAlreadyCompleted = errors.New("session already completed")

	// ErrSessionNotActive indicates a mutation was attempted on a
	// session in a terminal state.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrNoOwner indicates the caller supplied neither a learner ID nor
	// a guest token.
	ErrNoOwner = errors.New("caller has no identity")
)

// Owner identifies the caller: an authenticated learner or an anonymous
// guest holding a random token. Exactly one of the two fields is set.
type Owner struct {
	UserID     uuid.UUID
	GuestToken uuid.UUID
}

// IsGuest reports whether the owner is an anonymous guest.
func (o Owner) IsGuest() bool {
	return o.UserID == uuid.Nil
}

// Valid reports whether the owner carries an identity.
func (o Owner) Valid() bool {
	return o.UserID != uuid.Nil || o.GuestToken != uuid.Nil
}

// CreateSessionRequest describes a new session.
type CreateSessionRequest struct {
	DeckID          uuid.UUID
	Method          domain.SelectionMethod
	CardCount       int
	ExplicitCardIDs []uuid.UUID
	ExcludeMastered bool
}

// SelectionSummary describes the pool the working set was drawn from:
// how many cards were eligible before any count cap, and how many of
// the deck's cards the learner has mastered.
type SelectionSummary struct {
	AvailableCount int
	MasteredCount  int
}

// SessionView is the full client-facing shape of a session: the session
// record, its cards in frozen order, and the learner's progress for
// those cards (empty for guests). Selection is set only when the session
// is created; resuming a session does not rerun selection.
type SessionView struct {
	Session   *domain.StudySession
	Cards     []*domain.Card
	Progress  map[uuid.UUID]*domain.CardProgress
	Selection *SelectionSummary
}

// AutosaveRequest carries a partial update: any subset of the session's
// mutable fields. Nil pointers mean "field not sent"; answer maps merge,
// they never remove previously recorded answers.
type AutosaveRequest struct {
	CurrentIndex    *int
	Answers         map[uuid.UUID]domain.AnswerOutcome
	Streak          *int
	SessionXP       *int
	DurationSeconds *int
}

// AutosaveResult is the outcome of an autosave: the new session baseline,
// the learner's progression snapshot (nil for guests), and any
// achievements unlocked by the newly introduced answers.
type AutosaveResult struct {
	Session              *domain.StudySession
	Stats                *domain.UserStats
	UnlockedAchievements []string
}

// CardOutcome is the final per-card result submitted at completion.
// Skipped cards are simply absent: the scheduler only runs for cards
// that were actually answered.
type CardOutcome struct {
	CardID     uuid.UUID
	WasCorrect bool
}

// CompleteRequest carries the session's final tallies.
type CompleteRequest struct {
	Score           int
	CorrectCount    int
	IncorrectCount  int
	SkippedCount    int
	DurationSeconds int
	Outcomes        []CardOutcome
}

// CompleteResult is the outcome of completing a session.
type CompleteResult struct {
	Session              *domain.StudySession
	Stats                *domain.UserStats
	XPEarned             int
	LeveledUp            bool
	CurrentStreak        int
	UnlockedAchievements []string
}

// Service owns the session lifecycle state machine.
type Service interface {
	// CreateSession selects and interleaves the working set, freezes its
	// order and persists a new active session. Guests follow the same
	// method semantics but skip progress-based exclusion.
	CreateSession(ctx context.Context, owner Owner, req CreateSessionRequest) (*SessionView, error)

	// GetSession reconstructs the full session state from persisted
	// fields alone; the persisted card order is authoritative.
	GetSession(ctx context.Context, owner Owner, sessionID uuid.UUID) (*SessionView, error)

	// Autosave applies a partial update idempotently. Progression is
	// credited only with the delta against the previously persisted
	// snapshot, so replays with the same absolute state are no-ops.
	Autosave(
		ctx context.Context,
		owner Owner,
		sessionID uuid.UUID,
		req AutosaveRequest,
	) (*AutosaveResult, error)

	// CompleteSession runs the scheduler once per answered card, credits
	// the remaining progression deltas, recomputes the streak and marks
	// the session completed, all in one transaction. Returns
	// ErrAlreadyCompleted if the session is already completed.
	CompleteSession(
		ctx context.Context,
		owner Owner,
		sessionID uuid.UUID,
		req CompleteRequest,
	) (*CompleteResult, error)

	// AbandonSession marks the session abandoned. No progression writes
	// occur. Abandoning an already abandoned session is a no-op.
	AbandonSession(ctx context.Context, owner Owner, sessionID uuid.UUID) (*domain.StudySession, error)

	// PostponeCard pushes a card's next review forward by the given
	// number of days without touching its memory state. Authenticated
	// learners only; guests carry no progress rows.
	PostponeCard(
		ctx context.Context,
		userID uuid.UUID,
		cardID uuid.UUID,
		days int,
	) (*domain.CardProgress, error)
}
