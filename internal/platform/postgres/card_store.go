package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// ListByDeck implements store.CardStore.ListByDeck
// It retrieves a deck's non-deleted cards ordered by position.
// An existing deck with no cards yields an empty slice, not an error.
func (s *PostgresCardStore) ListByDeck(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing cards by deck", slog.String("deck_id", deckID.String()))

	query := `
		SELECT id, deck_id, front, back, context, hint, type,
		       options, correct_indexes, position, deleted_at,
		       created_at, updated_at
		FROM cards
		WHERE deck_id = $1 AND deleted_at IS NULL
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to list cards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row",
				slog.String("error", err.Error()),
				slog.String("deck_id", deckID.String()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}

	log.Debug("listed cards by deck",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// GetByIDs implements store.CardStore.GetByIDs
// It retrieves the cards with the given IDs, in the order the IDs are
// listed. Soft-deleted cards are included so historical sessions can
// still render their working set. Unknown IDs are silently skipped.
func (s *PostgresCardStore) GetByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return []*domain.Card{}, nil
	}

	query := `
		SELECT id, deck_id, front, back, context, hint, type,
		       options, correct_indexes, position, deleted_at,
		       created_at, updated_at
		FROM cards
		WHERE id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		log.Error("failed to get cards by IDs",
			slog.String("error", err.Error()),
			slog.Int("id_count", len(ids)))
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[uuid.UUID]*domain.Card, len(ids))
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, err
		}
		byID[card.ID] = card
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}

	// Restore the caller's ordering; IDs with no matching row are skipped.
	cards := make([]*domain.Card, 0, len(ids))
	for _, id := range ids {
		if card, ok := byID[id]; ok {
			cards = append(cards, card)
		}
	}

	return cards, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCard reads one card row, decoding the JSONB option columns.
func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card        domain.Card
		optionsJSON []byte
		indexesJSON []byte
		deletedAt   *time.Time
		contextText string
		hintText    string
	)

	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&contextText,
		&hintText,
		&card.Type,
		&optionsJSON,
		&indexesJSON,
		&card.Position,
		&deletedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	card.Context = contextText
	card.Hint = hintText
	card.DeletedAt = deletedAt

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &card.Options); err != nil {
			return nil, fmt.Errorf("failed to decode card options: %w", err)
		}
	}
	if len(indexesJSON) > 0 {
		if err := json.Unmarshal(indexesJSON, &card.CorrectIndexes); err != nil {
			return nil, fmt.Errorf("failed to decode card correct indexes: %w", err)
		}
	}

	return &card, nil
}

// uuidArray renders IDs as a PostgreSQL array literal for ANY($1).
// The stdlib driver interface has no native uuid slice support.
func uuidArray(ids []uuid.UUID) string {
	out := "{"
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out + "}"
}
