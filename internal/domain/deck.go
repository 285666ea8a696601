package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckTitleEmpty is returned when a deck's title is empty.
	ErrDeckTitleEmpty = errors.New("deck title cannot be empty")
)

// Deck is a named collection of cards. The study engine only reads decks;
// deck management is handled by the CRUD subsystem.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeck creates a new Deck with the given owner and title.
func NewDeck(ownerID uuid.UUID, title string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.Title == "" {
		return ErrDeckTitleEmpty
	}

	return nil
}
