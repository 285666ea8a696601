package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// PostgresStudySessionStore implements the store.StudySessionStore
// interface using a PostgreSQL database as the storage backend.
type PostgresStudySessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudySessionStore creates a new PostgreSQL implementation of
// the StudySessionStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStudySessionStore(db store.DBTX, logger *slog.Logger) *PostgresStudySessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudySessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_session_store")),
	}
}

// Ensure PostgresStudySessionStore implements store.StudySessionStore interface
var _ store.StudySessionStore = (*PostgresStudySessionStore)(nil)

// Create implements store.StudySessionStore.Create
// It saves a new session to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the deck doesn't exist (foreign key violation).
func (s *PostgresStudySessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("study session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	cardIDsJSON, answersJSON, err := encodeSessionState(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO study_sessions (id, user_id, guest_token, deck_id, method,
			card_ids, current_index, answers, streak, session_xp,
			duration_seconds, status, score, correct_count, incorrect_count,
			skipped_count, started_at, completed_at, last_activity_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`

	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		nullableUUID(session.UserID),
		nullableUUID(session.GuestToken),
		session.DeckID,
		session.Method,
		cardIDsJSON,
		session.CurrentIndex,
		answersJSON,
		session.Streak,
		session.SessionXP,
		session.DurationSeconds,
		session.Status,
		session.Score,
		session.CorrectCount,
		session.IncorrectCount,
		session.SkippedCount,
		session.StartedAt,
		session.CompletedAt,
		session.LastActivityAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during session creation",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()),
				slog.String("deck_id", session.DeckID.String()))
			return fmt.Errorf("%w: deck with ID %s not found",
				store.ErrInvalidEntity, session.DeckID)
		}

		log.Error("failed to create study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("failed to create study session: %w", err)
	}

	log.Info("study session created",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", session.DeckID.String()),
		slog.String("method", string(session.Method)),
		slog.Int("card_count", len(session.CardIDs)))
	return nil
}

// GetByID implements store.StudySessionStore.GetByID
// It retrieves a session by its unique ID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving study session by ID", slog.String("session_id", id.String()))

	query := `
		SELECT id, user_id, guest_token, deck_id, method, card_ids,
		       current_index, answers, streak, session_xp, duration_seconds,
		       status, score, correct_count, incorrect_count, skipped_count,
		       started_at, completed_at, last_activity_at, created_at, updated_at
		FROM study_sessions
		WHERE id = $1
	`

	session, err := scanStudySession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}

		log.Error("failed to get study session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, fmt.Errorf("failed to get study session: %w", err)
	}

	return session, nil
}

// Update implements store.StudySessionStore.Update
// It replaces the session's mutable state.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("study session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	cardIDsJSON, answersJSON, err := encodeSessionState(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE study_sessions
		SET card_ids = $2,
		    current_index = $3,
		    answers = $4,
		    streak = $5,
		    session_xp = $6,
		    duration_seconds = $7,
		    status = $8,
		    score = $9,
		    correct_count = $10,
		    incorrect_count = $11,
		    skipped_count = $12,
		    completed_at = $13,
		    last_activity_at = $14,
		    updated_at = $15
		WHERE id = $1
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		cardIDsJSON,
		session.CurrentIndex,
		answersJSON,
		session.Streak,
		session.SessionXP,
		session.DurationSeconds,
		session.Status,
		session.Score,
		session.CorrectCount,
		session.IncorrectCount,
		session.SkippedCount,
		session.CompletedAt,
		session.LastActivityAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("failed to update study session: %w", err)
	}

	if err := CheckRowsAffected(result, "study session"); err != nil {
		log.Debug("study session not found during update",
			slog.String("session_id", session.ID.String()))
		return store.ErrSessionNotFound
	}

	log.Debug("study session updated",
		slog.String("session_id", session.ID.String()),
		slog.String("status", string(session.Status)),
		slog.Int("current_index", session.CurrentIndex))
	return nil
}

// ListActiveCardIDs implements store.StudySessionStore.ListActiveCardIDs
// It returns the set of card IDs appearing in the learner's active
// sessions, used to exclude cards already being studied elsewhere.
func (s *PostgresStudySessionStore) ListActiveCardIDs(
	ctx context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT card_ids
		FROM study_sessions
		WHERE user_id = $1 AND status = $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.SessionStatusActive)
	if err != nil {
		log.Error("failed to list active session card IDs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list active session card IDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	active := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var cardIDsJSON []byte
		if err := rows.Scan(&cardIDsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan active session row: %w", err)
		}

		var cardIDs []uuid.UUID
		if err := json.Unmarshal(cardIDsJSON, &cardIDs); err != nil {
			return nil, fmt.Errorf("failed to decode active session card IDs: %w", err)
		}
		for _, id := range cardIDs {
			active[id] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active session rows: %w", err)
	}

	return active, nil
}

// WithTxStudySessionStore implements store.StudySessionStore.WithTxStudySessionStore
// It returns a StudySessionStore bound to the provided transaction.
func (s *PostgresStudySessionStore) WithTxStudySessionStore(tx *sql.Tx) store.StudySessionStore {
	return &PostgresStudySessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// encodeSessionState serializes the session columns stored as JSONB.
func encodeSessionState(session *domain.StudySession) (cardIDs, answers []byte, err error) {
	cardIDs, err = json.Marshal(session.CardIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode session card IDs: %w", err)
	}

	answers, err = json.Marshal(session.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode session answers: %w", err)
	}

	return cardIDs, answers, nil
}

// scanStudySession reads one session row, decoding JSONB and nullable columns.
func scanStudySession(row rowScanner) (*domain.StudySession, error) {
	var (
		session     domain.StudySession
		userID      uuid.NullUUID
		guestToken  uuid.NullUUID
		cardIDsJSON []byte
		answersJSON []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&session.ID,
		&userID,
		&guestToken,
		&session.DeckID,
		&session.Method,
		&cardIDsJSON,
		&session.CurrentIndex,
		&answersJSON,
		&session.Streak,
		&session.SessionXP,
		&session.DurationSeconds,
		&session.Status,
		&session.Score,
		&session.CorrectCount,
		&session.IncorrectCount,
		&session.SkippedCount,
		&session.StartedAt,
		&completedAt,
		&session.LastActivityAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.UserID = userID.UUID
	session.GuestToken = guestToken.UUID

	if err := json.Unmarshal(cardIDsJSON, &session.CardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode session card IDs: %w", err)
	}
	if err := json.Unmarshal(answersJSON, &session.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode session answers: %w", err)
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}

// nullableUUID maps the domain's zero UUID convention onto a SQL NULL.
func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
