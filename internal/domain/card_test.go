package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	deckID := uuid.New()
	card, err := NewCard(deckID, "front", "back", CardTypeStandard, 3)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, deckID, card.DeckID)
	assert.Equal(t, CardTypeStandard, card.Type)
	assert.Equal(t, 3, card.Position)
	assert.False(t, card.IsDeleted())
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Card {
		return &Card{
			ID:     uuid.New(),
			DeckID: uuid.New(),
			Front:  "front",
			Back:   "back",
			Type:   CardTypeStandard,
		}
	}

	testCases := []struct {
		name        string
		mutate      func(*Card)
		expectedErr error
	}{
		{
			name:        "valid card",
			mutate:      func(c *Card) {},
			expectedErr: nil,
		},
		{
			name:        "missing ID",
			mutate:      func(c *Card) { c.ID = uuid.Nil },
			expectedErr: ErrCardIDEmpty,
		},
		{
			name:        "missing deck ID",
			mutate:      func(c *Card) { c.DeckID = uuid.Nil },
			expectedErr: ErrCardDeckIDEmpty,
		},
		{
			name:        "empty front",
			mutate:      func(c *Card) { c.Front = "" },
			expectedErr: ErrCardFrontEmpty,
		},
		{
			name:        "empty back",
			mutate:      func(c *Card) { c.Back = "" },
			expectedErr: ErrCardBackEmpty,
		},
		{
			name:        "unknown type",
			mutate:      func(c *Card) { c.Type = CardType("cloze") },
			expectedErr: ErrInvalidCardType,
		},
		{
			name: "quiz without options",
			mutate: func(c *Card) {
				c.Type = CardTypeQuiz
			},
			expectedErr: ErrCardOptionsRequired,
		},
		{
			name: "quiz with out-of-range correct index",
			mutate: func(c *Card) {
				c.Type = CardTypeQuiz
				c.Options = []string{"a", "b"}
				c.CorrectIndexes = []int{2}
			},
			expectedErr: ErrCardCorrectIndexOutOfRange,
		},
		{
			name: "valid quiz card",
			mutate: func(c *Card) {
				c.Type = CardTypeQuiz
				c.Options = []string{"a", "b", "c"}
				c.CorrectIndexes = []int{1}
			},
			expectedErr: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			card := valid()
			tc.mutate(card)
			err := card.Validate()
			if tc.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
		})
	}
}

func TestCardTypeIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, CardTypeStandard.IsValid())
	assert.True(t, CardTypeQuiz.IsValid())
	assert.True(t, CardTypeTypeAnswer.IsValid())
	assert.False(t, CardType("").IsValid())
	assert.False(t, CardType("image").IsValid())
}
