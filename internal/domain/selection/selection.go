// Package selection decides which cards populate a new study session and
// in what order. Selection and interleaving run exactly once, at session
// creation; the resulting order is frozen on the session.
package selection

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
)

// Selection errors. Both are distinct from a missing deck: the deck
// exists but is unusable for this request.
var (
	// ErrNoCardsInDeck is returned when the deck has zero eligible base cards.
	ErrNoCardsInDeck = errors.New("deck has no cards to study")

	// ErrNoCardsAvailable is returned when exclusions reduce the eligible
	// set to zero.
	ErrNoCardsAvailable = errors.New("no cards available for the requested session")
)

// Options tunes card selection for one session.
type Options struct {
	// CardCount truncates the selection for random and smart methods.
	// Zero means no limit.
	CardCount int

	// ExplicitCardIDs is the exact card set for the manual method.
	// IDs not present in the deck are ignored.
	ExplicitCardIDs []uuid.UUID

	// ExcludeMastered removes cards whose progress status is mastered.
	ExcludeMastered bool

	// ExcludeCardIDs removes cards already live in another of the
	// learner's active sessions.
	ExcludeCardIDs map[uuid.UUID]struct{}
}

// Result is the outcome of card selection.
type Result struct {
	SelectedCards  []*domain.Card
	AvailableCount int // Eligible cards before truncation
	MasteredCount  int // Cards in the deck the learner has mastered
}

// SelectCards produces the ordered working set for a new session.
//
// cards must be the deck's non-deleted cards in position order. progress
// maps card IDs to the learner's progress rows; guests pass nil and skip
// progress-based exclusion entirely. rng drives the random method and may
// be nil, in which case a time-seeded source is used.
//
// Exclusions apply before truncation: a card is eligible unless it is
// mastered (when ExcludeMastered is set) or listed in ExcludeCardIDs.
func SelectCards(
	cards []*domain.Card,
	progress map[uuid.UUID]*domain.CardProgress,
	method domain.SelectionMethod,
	opts Options,
	rng *rand.Rand,
) (*Result, error) {
	if !method.IsValid() {
		return nil, domain.ErrInvalidSelectionMethod
	}

	base := make([]*domain.Card, 0, len(cards))
	for _, card := range cards {
		if !card.IsDeleted() {
			base = append(base, card)
		}
	}

	if len(base) == 0 {
		return nil, ErrNoCardsInDeck
	}

	masteredCount := 0
	eligible := make([]*domain.Card, 0, len(base))
	for _, card := range base {
		p := progress[card.ID]
		mastered := p != nil && p.Status == domain.ProgressStatusMastered
		if mastered {
			masteredCount++
		}

		if opts.ExcludeMastered && mastered {
			continue
		}
		if _, excluded := opts.ExcludeCardIDs[card.ID]; excluded {
			continue
		}
		eligible = append(eligible, card)
	}

	if method == domain.SelectionMethodManual {
		eligible = filterExplicit(eligible, opts.ExplicitCardIDs)
	}

	if len(eligible) == 0 {
		return nil, ErrNoCardsAvailable
	}

	available := len(eligible)
	selected := eligible

	switch method {
	case domain.SelectionMethodAll, domain.SelectionMethodManual:
		// Deck order, no truncation

	case domain.SelectionMethodRandom:
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		shuffled := make([]*domain.Card, len(eligible))
		copy(shuffled, eligible)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		selected = truncate(shuffled, opts.CardCount)

	case domain.SelectionMethodSmart:
		selected = truncate(sortByOverdue(eligible, progress), opts.CardCount)
	}

	return &Result{
		SelectedCards:  selected,
		AvailableCount: available,
		MasteredCount:  masteredCount,
	}, nil
}

// filterExplicit keeps only the cards named in ids, preserving deck order.
func filterExplicit(cards []*domain.Card, ids []uuid.UUID) []*domain.Card {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	out := make([]*domain.Card, 0, len(ids))
	for _, card := range cards {
		if _, ok := wanted[card.ID]; ok {
			out = append(out, card)
		}
	}
	return out
}

// sortByOverdue front-loads cards whose next review is most overdue.
// Cards never reviewed sort first; ties keep deck order.
func sortByOverdue(cards []*domain.Card, progress map[uuid.UUID]*domain.CardProgress) []*domain.Card {
	out := make([]*domain.Card, len(cards))
	copy(out, cards)

	due := func(card *domain.Card) time.Time {
		p := progress[card.ID]
		if p == nil || p.LastReviewedAt.IsZero() {
			return time.Time{} // Never reviewed: most urgent
		}
		return p.NextReviewAt
	}

	sort.SliceStable(out, func(i, j int) bool {
		return due(out[i]).Before(due(out[j]))
	})
	return out
}

func truncate(cards []*domain.Card, count int) []*domain.Card {
	if count > 0 && len(cards) > count {
		return cards[:count]
	}
	return cards
}
