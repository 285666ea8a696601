package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/study"
)

// Request payloads

// CreateSessionRequest defines the payload for starting a study session.
type CreateSessionRequest struct {
	DeckID          uuid.UUID   `json:"deck_id"          validate:"required"`
	Method          string      `json:"method"           validate:"required,oneof=random smart manual all"`
	CardCount       int         `json:"card_count"       validate:"gte=0"`
	CardIDs         []uuid.UUID `json:"card_ids,omitempty"`
	ExcludeMastered bool        `json:"exclude_mastered"`
}

// AutosaveRequest defines the partial-update payload for a session.
// Absent fields are left untouched.
type AutosaveRequest struct {
	CurrentIndex    *int              `json:"current_index,omitempty"`
	Answers         map[string]string `json:"answers,omitempty"`
	Streak          *int              `json:"streak,omitempty"`
	SessionXP       *int              `json:"session_xp,omitempty"       validate:"omitempty,gte=0"`
	DurationSeconds *int              `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
}

// CardOutcomePayload is one card's final result at completion.
type CardOutcomePayload struct {
	CardID     uuid.UUID `json:"card_id"     validate:"required"`
	WasCorrect bool      `json:"was_correct"`
}

// CompleteSessionRequest defines the payload for completing a session.
type CompleteSessionRequest struct {
	Score           int                  `json:"score"            validate:"gte=0,lte=100"`
	CorrectCount    int                  `json:"correct_count"    validate:"gte=0"`
	IncorrectCount  int                  `json:"incorrect_count"  validate:"gte=0"`
	SkippedCount    int                  `json:"skipped_count"    validate:"gte=0"`
	DurationSeconds int                  `json:"duration_seconds" validate:"gte=0"`
	Outcomes        []CardOutcomePayload `json:"outcomes"`
}

// PostponeCardRequest defines the payload for pushing a card's next
// review forward.
type PostponeCardRequest struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// Response payloads

// CardResponse represents one card of a session's working set.
type CardResponse struct {
	ID             uuid.UUID `json:"id"`
	DeckID         uuid.UUID `json:"deck_id"`
	Front          string    `json:"front"`
	Back           string    `json:"back"`
	Context        string    `json:"context,omitempty"`
	Hint           string    `json:"hint,omitempty"`
	Type           string    `json:"type"`
	Options        []string  `json:"options,omitempty"`
	CorrectIndexes []int     `json:"correct_indexes,omitempty"`
	Position       int       `json:"position"`
}

// ProgressResponse represents the learner's memory state for one card.
type ProgressResponse struct {
	CardID         uuid.UUID  `json:"card_id"`
	Status         string     `json:"status"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	TimesSeen      int        `json:"times_seen"`
	TimesCorrect   int        `json:"times_correct"`
	TimesIncorrect int        `json:"times_incorrect"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// SessionResponse is the wire shape of a study session.
type SessionResponse struct {
	ID              uuid.UUID         `json:"id"`
	DeckID          uuid.UUID         `json:"deck_id"`
	Method          string            `json:"method"`
	CardIDs         []uuid.UUID       `json:"card_ids"`
	CurrentIndex    int               `json:"current_index"`
	Answers         map[string]string `json:"answers"`
	Streak          int               `json:"streak"`
	SessionXP       int               `json:"session_xp"`
	DurationSeconds int               `json:"duration_seconds"`
	Status          string            `json:"status"`
	Score           int               `json:"score"`
	CorrectCount    int               `json:"correct_count"`
	IncorrectCount  int               `json:"incorrect_count"`
	SkippedCount    int               `json:"skipped_count"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	LastActivityAt  time.Time         `json:"last_activity_at"`
}

// SelectionSummaryResponse reports the pool a new session's working set
// was drawn from.
type SelectionSummaryResponse struct {
	AvailableCount int `json:"available_count"`
	MasteredCount  int `json:"mastered_count"`
}

// SessionViewResponse is the full create/fetch shape: the session, its
// cards in frozen order, and the learner's progress per card. Selection
// is present only on creation.
type SessionViewResponse struct {
	Session   SessionResponse             `json:"session"`
	Cards     []CardResponse              `json:"cards"`
	Progress  map[string]ProgressResponse `json:"progress,omitempty"`
	Selection *SelectionSummaryResponse   `json:"selection,omitempty"`
}

// StatsResponse is the learner's progression snapshot.
type StatsResponse struct {
	Level             int  `json:"level"`
	CurrentXP         int  `json:"current_xp"`
	NextLevelXP       int  `json:"next_level_xp"`
	TotalXP           int  `json:"total_xp"`
	CurrentStreak     int  `json:"current_streak"`
	LongestStreak     int  `json:"longest_streak"`
	StreakShieldArmed bool `json:"streak_shield_armed"`
	CardsLearned      int  `json:"cards_learned"`
	CardsMastered     int  `json:"cards_mastered"`
	DecksCompleted    int  `json:"decks_completed"`
	TimeSpentSeconds  int  `json:"time_spent_seconds"`
	TotalAnswers      int  `json:"total_answers"`
	CorrectAnswers    int  `json:"correct_answers"`
}

// AutosaveResponse is the result of an autosave.
type AutosaveResponse struct {
	Session              SessionResponse `json:"session"`
	Stats                *StatsResponse  `json:"stats,omitempty"`
	UnlockedAchievements []string        `json:"unlocked_achievements,omitempty"`
}

// CompleteSessionResponse is the result of completing a session.
type CompleteSessionResponse struct {
	Session              SessionResponse `json:"session"`
	Stats                *StatsResponse  `json:"stats,omitempty"`
	XPEarned             int             `json:"xp_earned"`
	LeveledUp            bool            `json:"leveled_up"`
	CurrentStreak        int             `json:"current_streak"`
	UnlockedAchievements []string        `json:"unlocked_achievements,omitempty"`
}

// Mapping helpers

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:             card.ID,
		DeckID:         card.DeckID,
		Front:          card.Front,
		Back:           card.Back,
		Context:        card.Context,
		Hint:           card.Hint,
		Type:           string(card.Type),
		Options:        card.Options,
		CorrectIndexes: card.CorrectIndexes,
		Position:       card.Position,
	}
}

func progressToResponse(p *domain.CardProgress) ProgressResponse {
	resp := ProgressResponse{
		CardID:         p.CardID,
		Status:         string(p.Status),
		EaseFactor:     p.EaseFactor,
		IntervalDays:   p.Interval,
		Repetitions:    p.Repetitions,
		NextReviewAt:   p.NextReviewAt,
		TimesSeen:      p.TimesSeen,
		TimesCorrect:   p.TimesCorrect,
		TimesIncorrect: p.TimesIncorrect,
	}
	if !p.LastReviewedAt.IsZero() {
		t := p.LastReviewedAt
		resp.LastReviewedAt = &t
	}
	return resp
}

func sessionToResponse(s *domain.StudySession) SessionResponse {
	answers := make(map[string]string, len(s.Answers))
	for cardID, outcome := range s.Answers {
		answers[cardID.String()] = string(outcome)
	}

	return SessionResponse{
		ID:              s.ID,
		DeckID:          s.DeckID,
		Method:          string(s.Method),
		CardIDs:         s.CardIDs,
		CurrentIndex:    s.CurrentIndex,
		Answers:         answers,
		Streak:          s.Streak,
		SessionXP:       s.SessionXP,
		DurationSeconds: s.DurationSeconds,
		Status:          string(s.Status),
		Score:           s.Score,
		CorrectCount:    s.CorrectCount,
		IncorrectCount:  s.IncorrectCount,
		SkippedCount:    s.SkippedCount,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		LastActivityAt:  s.LastActivityAt,
	}
}

func viewToResponse(view *study.SessionView) SessionViewResponse {
	cards := make([]CardResponse, 0, len(view.Cards))
	for _, card := range view.Cards {
		cards = append(cards, cardToResponse(card))
	}

	resp := SessionViewResponse{
		Session: sessionToResponse(view.Session),
		Cards:   cards,
	}

	if len(view.Progress) > 0 {
		resp.Progress = make(map[string]ProgressResponse, len(view.Progress))
		for cardID, p := range view.Progress {
			resp.Progress[cardID.String()] = progressToResponse(p)
		}
	}

	if view.Selection != nil {
		resp.Selection = &SelectionSummaryResponse{
			AvailableCount: view.Selection.AvailableCount,
			MasteredCount:  view.Selection.MasteredCount,
		}
	}

	return resp
}

func statsToResponse(stats *domain.UserStats) *StatsResponse {
	if stats == nil {
		return nil
	}
	return &StatsResponse{
		Level:             stats.Level,
		CurrentXP:         stats.CurrentXP,
		NextLevelXP:       stats.NextLevelXP,
		TotalXP:           stats.TotalXP,
		CurrentStreak:     stats.CurrentStreak,
		LongestStreak:     stats.LongestStreak,
		StreakShieldArmed: stats.StreakShieldArmed,
		CardsLearned:      stats.CardsLearned,
		CardsMastered:     stats.CardsMastered,
		DecksCompleted:    stats.DecksCompleted,
		TimeSpentSeconds:  stats.TimeSpentSeconds,
		TotalAnswers:      stats.TotalAnswers,
		CorrectAnswers:    stats.CorrectAnswers,
	}
}
