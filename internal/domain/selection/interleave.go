package selection

import "github.com/NoisimRo/Flashcards-sub000/internal/domain"

// Interleave reorders a working set so cards of the same type are spread
// round-robin across the sequence: partition by type preserving relative
// order within each type, then emit one card from each non-empty
// partition per round until all are exhausted. Types cycle in order of
// first appearance, so the output starts with whichever type leads the
// input. This avoids long monotone runs of one card type without
// randomizing within a type.
func Interleave(cards []*domain.Card) []*domain.Card {
	if len(cards) < 2 {
		return cards
	}

	var order []domain.CardType
	partitions := make(map[domain.CardType][]*domain.Card)
	for _, card := range cards {
		if _, seen := partitions[card.Type]; !seen {
			order = append(order, card.Type)
		}
		partitions[card.Type] = append(partitions[card.Type], card)
	}

	out := make([]*domain.Card, 0, len(cards))
	for len(out) < len(cards) {
		for _, t := range order {
			if len(partitions[t]) == 0 {
				continue
			}
			out = append(out, partitions[t][0])
			partitions[t] = partitions[t][1:]
		}
	}

	return out
}
