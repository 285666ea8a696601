package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SelectionMethod determines how cards are chosen for a new session.
type SelectionMethod string

// Supported selection methods.
const (
	SelectionMethodRandom SelectionMethod = "random"
	SelectionMethodSmart  SelectionMethod = "smart"
	SelectionMethodManual SelectionMethod = "manual"
	SelectionMethodAll    SelectionMethod = "all"
)

// IsValid reports whether the selection method is recognized.
func (m SelectionMethod) IsValid() bool {
	switch m {
	case SelectionMethodRandom, SelectionMethodSmart, SelectionMethodManual, SelectionMethodAll:
		return true
	default:
		return false
	}
}

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

// Session lifecycle states. Active sessions are resumable indefinitely;
// completed and abandoned are terminal.
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// IsTerminal reports whether no further transitions are allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned
}

// AnswerOutcome is the per-card result recorded during a session.
type AnswerOutcome string

// Possible answer outcomes.
const (
	AnswerOutcomeCorrect   AnswerOutcome = "correct"
	AnswerOutcomeIncorrect AnswerOutcome = "incorrect"
	AnswerOutcomeSkipped   AnswerOutcome = "skipped"
)

// IsValid reports whether the outcome is one of the known values.
func (o AnswerOutcome) IsValid() bool {
	switch o {
	case AnswerOutcomeCorrect, AnswerOutcomeIncorrect, AnswerOutcomeSkipped:
		return true
	default:
		return false
	}
}

// StudySession validation errors
var (
	ErrSessionIDEmpty      = errors.New("study session ID cannot be empty")
	ErrSessionDeckIDEmpty  = errors.New("study session deck ID cannot be empty")
	ErrSessionOwnerMissing = errors.New("study session requires a user ID or a guest token")
	ErrSessionNoCards      = errors.New("study session requires at least one card")
	ErrSessionBadPosition  = errors.New("study session position out of range")
)

// StudySession is the unit of resumability: every field needed to
// reconstruct the session after a client restart is persisted here.
// The card order is frozen at creation (selection and interleaving run
// exactly once); all later mutation is positional and stateful only.
//
// A session is owned either by an authenticated learner (UserID set) or
// by an anonymous guest (GuestToken set), never both.
type StudySession struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id,omitempty"`     // Nil for guest sessions
	GuestToken uuid.UUID `json:"guest_token,omitempty"` // Nil for authenticated sessions
	DeckID     uuid.UUID `json:"deck_id"`

	Method  SelectionMethod `json:"method"`
	CardIDs []uuid.UUID     `json:"card_ids"` // Frozen order, set at creation

	CurrentIndex    int                         `json:"current_index"`
	Answers         map[uuid.UUID]AnswerOutcome `json:"answers"`
	Streak          int                         `json:"streak"`
	SessionXP       int                         `json:"session_xp"`
	DurationSeconds int                         `json:"duration_seconds"`

	Status SessionStatus `json:"status"`

	// Final tallies, populated at completion.
	Score          int `json:"score"`
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	SkippedCount   int `json:"skipped_count"`

	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewStudySession creates an active session for an authenticated learner
// with the given frozen card order.
func NewStudySession(
	userID, deckID uuid.UUID,
	method SelectionMethod,
	cardIDs []uuid.UUID,
) (*StudySession, error) {
	return newSession(userID, uuid.Nil, deckID, method, cardIDs)
}

// NewGuestStudySession creates an active session keyed by an anonymous
// guest token instead of a learner ID.
func NewGuestStudySession(
	guestToken, deckID uuid.UUID,
	method SelectionMethod,
	cardIDs []uuid.UUID,
) (*StudySession, error) {
	return newSession(uuid.Nil, guestToken, deckID, method, cardIDs)
}

func newSession(
	userID, guestToken, deckID uuid.UUID,
	method SelectionMethod,
	cardIDs []uuid.UUID,
) (*StudySession, error) {
	now := time.Now().UTC()
	session := &StudySession{
		ID:             uuid.New(),
		UserID:         userID,
		GuestToken:     guestToken,
		DeckID:         deckID,
		Method:         method,
		CardIDs:        cardIDs,
		CurrentIndex:   0,
		Answers:        make(map[uuid.UUID]AnswerOutcome),
		Status:         SessionStatusActive,
		StartedAt:      now,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.DeckID == uuid.Nil {
		return ErrSessionDeckIDEmpty
	}

	if s.UserID == uuid.Nil && s.GuestToken == uuid.Nil {
		return ErrSessionOwnerMissing
	}

	if !s.Method.IsValid() {
		return ErrInvalidSelectionMethod
	}

	if len(s.CardIDs) == 0 {
		return ErrSessionNoCards
	}

	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.CardIDs) {
		return ErrSessionBadPosition
	}

	if !s.isValidStatus() {
		return ErrInvalidSessionStatus
	}

	for _, outcome := range s.Answers {
		if !outcome.IsValid() {
			return ErrInvalidAnswerOutcome
		}
	}

	return nil
}

func (s *StudySession) isValidStatus() bool {
	switch s.Status {
	case SessionStatusActive, SessionStatusCompleted, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// IsGuest reports whether the session belongs to an anonymous learner.
// Guest sessions never write card progress or progression aggregates.
func (s *StudySession) IsGuest() bool {
	return s.UserID == uuid.Nil
}

// OwnedBy reports whether the session belongs to the given learner.
func (s *StudySession) OwnedBy(userID uuid.UUID) bool {
	return s.UserID != uuid.Nil && s.UserID == userID
}

// OwnedByGuest reports whether the session belongs to the given guest token.
func (s *StudySession) OwnedByGuest(token uuid.UUID) bool {
	return s.GuestToken != uuid.Nil && s.GuestToken == token
}

// ContainsCard reports whether the card is part of the frozen working set.
func (s *StudySession) ContainsCard(cardID uuid.UUID) bool {
	for _, id := range s.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}
