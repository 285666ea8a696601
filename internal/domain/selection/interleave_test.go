package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

func typesOf(cards []*domain.Card) []domain.CardType {
	out := make([]domain.CardType, len(cards))
	for i, c := range cards {
		out[i] = c.Type
	}
	return out
}

func TestInterleaveAlternatesTwoTypes(t *testing.T) {
	t.Parallel()

	cards := deckOf(
		domain.CardTypeStandard, domain.CardTypeStandard, domain.CardTypeStandard,
		domain.CardTypeQuiz, domain.CardTypeQuiz, domain.CardTypeQuiz,
	)

	out := Interleave(cards)
	assert.Equal(t, []domain.CardType{
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeQuiz,
	}, typesOf(out))

	// Starts with whichever type appears first in deck order
	assert.Equal(t, cards[0].ID, out[0].ID)
}

func TestInterleaveIsPermutation(t *testing.T) {
	t.Parallel()

	cards := deckOf(
		domain.CardTypeQuiz, domain.CardTypeStandard, domain.CardTypeTypeAnswer,
		domain.CardTypeQuiz, domain.CardTypeQuiz, domain.CardTypeStandard,
		domain.CardTypeTypeAnswer,
	)

	out := Interleave(cards)
	assert.Len(t, out, len(cards))

	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.ID.String()]++
	}
	for _, c := range out {
		counts[c.ID.String()]--
	}
	for id, n := range counts {
		assert.Zero(t, n, "card %s count mismatch", id)
	}
}

func TestInterleavePreservesOrderWithinType(t *testing.T) {
	t.Parallel()

	cards := deckOf(
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeQuiz,
	)

	out := Interleave(cards)

	var standards, quizzes []string
	for _, c := range out {
		switch c.Type {
		case domain.CardTypeStandard:
			standards = append(standards, c.ID.String())
		case domain.CardTypeQuiz:
			quizzes = append(quizzes, c.ID.String())
		}
	}

	assert.Equal(t, []string{cards[0].ID.String(), cards[2].ID.String()}, standards)
	assert.Equal(t, []string{cards[1].ID.String(), cards[3].ID.String()}, quizzes)
}

func TestInterleaveUnevenPartitions(t *testing.T) {
	t.Parallel()

	cards := deckOf(
		domain.CardTypeStandard, domain.CardTypeStandard, domain.CardTypeStandard,
		domain.CardTypeStandard, domain.CardTypeQuiz,
	)

	out := Interleave(cards)
	assert.Equal(t, []domain.CardType{
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeStandard, domain.CardTypeStandard,
	}, typesOf(out))
}

func TestInterleaveSingleTypeAndTrivialInputs(t *testing.T) {
	t.Parallel()

	single := deckOf(domain.CardTypeQuiz, domain.CardTypeQuiz)
	assert.Equal(t, typesOf(single), typesOf(Interleave(single)))

	one := deckOf(domain.CardTypeStandard)
	assert.Equal(t, one, Interleave(one))

	assert.Empty(t, Interleave(nil))
}

// Balanced inputs never let two same-typed cards drift more than
// ceil(n/types) positions apart.
func TestInterleaveSpacingBound(t *testing.T) {
	t.Parallel()

	cards := deckOf(
		domain.CardTypeStandard, domain.CardTypeStandard, domain.CardTypeStandard,
		domain.CardTypeQuiz, domain.CardTypeQuiz, domain.CardTypeQuiz,
		domain.CardTypeTypeAnswer, domain.CardTypeTypeAnswer, domain.CardTypeTypeAnswer,
	)

	out := Interleave(cards)
	last := make(map[domain.CardType]int)
	for i, c := range out {
		if prev, seen := last[c.Type]; seen {
			assert.LessOrEqual(t, i-prev, 3, "gap for type %s too wide", c.Type)
		}
		last[c.Type] = i
	}
}
