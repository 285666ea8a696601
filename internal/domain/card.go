package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardType identifies how a card is presented and answered.
type CardType string

// Supported card types. The set is closed: the interleaver and the
// quality mapping both handle it exhaustively.
const (
	CardTypeStandard   CardType = "standard"
	CardTypeQuiz       CardType = "quiz"
	CardTypeTypeAnswer CardType = "type-answer"
)

// IsValid reports whether the card type is one of the supported variants.
func (t CardType) IsValid() bool {
	switch t {
	case CardTypeStandard, CardTypeQuiz, CardTypeTypeAnswer:
		return true
	default:
		return false
	}
}

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front text is empty.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card's back text is empty.
	ErrCardBackEmpty = errors.New("card back cannot be empty")

	// ErrCardOptionsRequired is returned when a quiz card has fewer than two options.
	ErrCardOptionsRequired = errors.New("quiz card requires at least two options")

	// ErrCardCorrectIndexOutOfRange is returned when a correct-answer index
	// does not point at one of the card's options.
	ErrCardCorrectIndexOutOfRange = errors.New("correct option index out of range")
)

// Card represents a single flashcard belonging to a deck. Cards are
// immutable from the study engine's point of view; deck/card CRUD is a
// separate subsystem. A non-nil DeletedAt marks the card soft-deleted:
// it is excluded from future selection but historical references
// (sessions, progress rows) stay intact.
type Card struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	Context        string     `json:"context,omitempty"`
	Hint           string     `json:"hint,omitempty"`
	Type           CardType   `json:"type"`
	Options        []string   `json:"options,omitempty"`
	CorrectIndexes []int      `json:"correct_indexes,omitempty"`
	Position       int        `json:"position"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewCard creates a new Card with the given deck ID, texts, type and position.
// It generates a new UUID for the card ID and sets the timestamps.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, front, back string, cardType CardType, position int) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		Type:      cardType,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if c.Back == "" {
		return ErrCardBackEmpty
	}

	if !c.Type.IsValid() {
		return ErrInvalidCardType
	}

	if c.Type == CardTypeQuiz {
		if len(c.Options) < 2 {
			return ErrCardOptionsRequired
		}
		for _, idx := range c.CorrectIndexes {
			if idx < 0 || idx >= len(c.Options) {
				return ErrCardCorrectIndexOutOfRange
			}
		}
	}

	return nil
}

// IsDeleted reports whether the card has been soft-deleted.
func (c *Card) IsDeleted() bool {
	return c.DeletedAt != nil
}
