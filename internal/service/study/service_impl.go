package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/selection"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/srs"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/achievement"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/progression"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	db            *sql.DB
	deckStore     store.DeckStore
	cardStore     store.CardStore
	progressStore store.CardProgressStore
	sessionStore  store.StudySessionStore
	ledger        progression.Ledger
	srsService    srs.Service
	evaluator     achievement.Evaluator

	defaultCardCount int

	logger *slog.Logger
	now    func() time.Time
	runTx  func(ctx context.Context, fn store.TxFn) error
}

// NewService creates a new study session Service.
// defaultCardCount caps random/smart selections when the client sends no
// count; zero means no cap.
func NewService(
	db *sql.DB,
	deckStore store.DeckStore,
	cardStore store.CardStore,
	progressStore store.CardProgressStore,
	sessionStore store.StudySessionStore,
	ledger progression.Ledger,
	srsService srs.Service,
	evaluator achievement.Evaluator,
	defaultCardCount int,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if deckStore == nil {
		panic("deckStore cannot be nil")
	}
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}
	if ledger == nil {
		panic("ledger cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if evaluator == nil {
		panic("evaluator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		db:               db,
		deckStore:        deckStore,
		cardStore:        cardStore,
		progressStore:    progressStore,
		sessionStore:     sessionStore,
		ledger:           ledger,
		srsService:       srsService,
		evaluator:        evaluator,
		defaultCardCount: defaultCardCount,
		logger:           logger.With(slog.String("component", "study_service")),
		now:              func() time.Time { return time.Now().UTC() },
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}
}

// CreateSession implements Service.CreateSession.
func (s *serviceImpl) CreateSession(
	ctx context.Context,
	owner Owner,
	req CreateSessionRequest,
) (*SessionView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !owner.Valid() {
		return nil, ErrNoOwner
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSelectionMethod, req.Method)
	}

	if _, err := s.deckStore.GetByID(ctx, req.DeckID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}

	cards, err := s.cardStore.ListByDeck(ctx, req.DeckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck cards: %w", err)
	}

	// Guests have no progress rows and no concurrent-session exclusion.
	var progress map[uuid.UUID]*domain.CardProgress
	var activeCardIDs map[uuid.UUID]struct{}
	if !owner.IsGuest() {
		cardIDs := make([]uuid.UUID, len(cards))
		for i, card := range cards {
			cardIDs[i] = card.ID
		}
		progress, err = s.progressStore.GetByUserAndCards(ctx, owner.UserID, cardIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load card progress: %w", err)
		}
		activeCardIDs, err = s.sessionStore.ListActiveCardIDs(ctx, owner.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load active session cards: %w", err)
		}
	}

	cardCount := req.CardCount
	if cardCount == 0 {
		cardCount = s.defaultCardCount
	}

	result, err := selection.SelectCards(cards, progress, req.Method, selection.Options{
		CardCount:       cardCount,
		ExplicitCardIDs: req.ExplicitCardIDs,
		ExcludeMastered: req.ExcludeMastered,
		ExcludeCardIDs:  activeCardIDs,
	}, rand.New(rand.NewSource(s.now().UnixNano())))
	if err != nil {
		return nil, err
	}

	ordered := selection.Interleave(result.SelectedCards)
	orderedIDs := make([]uuid.UUID, len(ordered))
	for i, card := range ordered {
		orderedIDs[i] = card.ID
	}

	var session *domain.StudySession
	if owner.IsGuest() {
		session, err = domain.NewGuestStudySession(owner.GuestToken, req.DeckID, req.Method, orderedIDs)
	} else {
		session, err = domain.NewStudySession(owner.UserID, req.DeckID, req.Method, orderedIDs)
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Info("study session created",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", req.DeckID.String()),
		slog.String("method", string(req.Method)),
		slog.Int("card_count", len(orderedIDs)),
		slog.Bool("guest", owner.IsGuest()))

	return &SessionView{
		Session:  session,
		Cards:    ordered,
		Progress: progressForCards(progress, orderedIDs),
		Selection: &SelectionSummary{
			AvailableCount: result.AvailableCount,
			MasteredCount:  result.MasteredCount,
		},
	}, nil
}

// GetSession implements Service.GetSession.
func (s *serviceImpl) GetSession(
	ctx context.Context,
	owner Owner,
	sessionID uuid.UUID,
) (*SessionView, error) {
	session, err := s.loadOwnedSession(ctx, s.sessionStore, owner, sessionID)
	if err != nil {
		return nil, err
	}

	cards, err := s.cardStore.GetByIDs(ctx, session.CardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load session cards: %w", err)
	}

	var progress map[uuid.UUID]*domain.CardProgress
	if !owner.IsGuest() {
		progress, err = s.progressStore.GetByUserAndCards(ctx, owner.UserID, session.CardIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load card progress: %w", err)
		}
	}

	return &SessionView{
		Session:  session,
		Cards:    cards,
		Progress: progress,
	}, nil
}

// Autosave implements Service.Autosave.
// The read of the prior snapshot and the write of the new one share a
// single transaction: the delta is always computed against the row the
// write replaces, so concurrent or replayed autosaves cannot double-credit.
func (s *serviceImpl) Autosave(
	ctx context.Context,
	owner Owner,
	sessionID uuid.UUID,
	req AutosaveRequest,
) (*AutosaveResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, outcome := range req.Answers {
		if !outcome.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAnswerOutcome, outcome)
		}
	}

	var (
		session    *domain.StudySession
		stats      *domain.UserStats
		newAnswers int
	)

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessionStore.WithTxStudySessionStore(tx)

		stored, err := s.loadOwnedSession(ctx, sessions, owner, sessionID)
		if err != nil {
			return err
		}
		if stored.Status.IsTerminal() {
			return ErrSessionNotActive
		}

		delta := applyAutosave(stored, req, s.now())
		newAnswers = delta.newAnswers

		if err := sessions.Update(ctx, stored); err != nil {
			return fmt.Errorf("failed to persist autosave: %w", err)
		}
		session = stored

		if owner.IsGuest() || delta.empty() {
			return nil
		}

		ledger := s.ledger.WithTx(tx)
		stats, err = ledger.GetSnapshot(ctx, owner.UserID)
		if err != nil {
			return err
		}

		ledger.ApplyXP(stats, delta.xp)
		stats.TimeSpentSeconds += delta.seconds
		stats.TotalAnswers += delta.newAnswers
		stats.CorrectAnswers += delta.newCorrect

		if err := ledger.RecordDaily(ctx, &domain.DailyProgress{
			UserID:           owner.UserID,
			Date:             s.now(),
			CardsStudied:     delta.newAnswers,
			TimeSpentSeconds: delta.seconds,
			XPEarned:         delta.xp,
		}); err != nil {
			return err
		}

		return ledger.SaveSnapshot(ctx, stats)
	})
	if err != nil {
		return nil, err
	}

	result := &AutosaveResult{Session: session, Stats: stats}

	// Real-time achievement feedback is best-effort: a failure here must
	// not fail an otherwise committed autosave.
	if !owner.IsGuest() && newAnswers > 0 {
		unlocked, err := s.evaluator.Evaluate(ctx, owner.UserID, liveSessionMetrics(session, s.now()))
		if err != nil {
			log.Warn("achievement evaluation failed after autosave",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()))
		} else {
			result.UnlockedAchievements = unlocked
		}
	}

	return result, nil
}

// CompleteSession implements Service.CompleteSession.
// Everything runs in one transaction: the status flip, every scheduler
// update, the remaining progression deltas, the streak recomputation and
// the achievement evaluation commit together or not at all.
func (s *serviceImpl) CompleteSession(
	ctx context.Context,
	owner Owner,
	sessionID uuid.UUID,
	req CompleteRequest,
) (*CompleteResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := &CompleteResult{}

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessionStore.WithTxStudySessionStore(tx)

		stored, err := s.loadOwnedSession(ctx, sessions, owner, sessionID)
		if err != nil {
			return err
		}
		switch stored.Status {
		case domain.SessionStatusCompleted:
			return ErrAlreadyCompleted
		case domain.SessionStatusAbandoned:
			return ErrSessionNotActive
		}

		now := s.now()

		// Deltas not yet captured by prior autosaves. XP is deliberately
		// absent: every XP delta was already applied as it was autosaved,
		// and re-adding the session total here would double-count.
		secondsDelta := maxInt(0, req.DurationSeconds-stored.DurationSeconds)
		newAnswers, newCorrect := 0, 0
		for _, outcome := range req.Outcomes {
			if _, seen := stored.Answers[outcome.CardID]; seen {
				continue
			}
			if !stored.ContainsCard(outcome.CardID) {
				continue
			}
			newAnswers++
			if outcome.WasCorrect {
				newCorrect++
			}
		}

		learned, masteredDelta := 0, 0
		if !owner.IsGuest() {
			progressStore := s.progressStore.WithTxCardProgressStore(tx)
			learned, masteredDelta, err = s.applyOutcomes(ctx, progressStore, owner.UserID, stored, req.Outcomes, now)
			if err != nil {
				return err
			}
		}

		finalizeSession(stored, req, now)
		if err := sessions.Update(ctx, stored); err != nil {
			return fmt.Errorf("failed to persist completed session: %w", err)
		}
		result.Session = stored
		result.XPEarned = stored.SessionXP

		if owner.IsGuest() {
			return nil
		}

		ledger := s.ledger.WithTx(tx)
		stats, err := ledger.GetSnapshot(ctx, owner.UserID)
		if err != nil {
			return err
		}
		levelBefore := stats.Level

		stats.CardsLearned += learned
		stats.CardsMastered = maxInt(0, stats.CardsMastered+masteredDelta)
		stats.DecksCompleted++
		stats.TimeSpentSeconds += secondsDelta
		stats.TotalAnswers += newAnswers
		stats.CorrectAnswers += newCorrect

		if err := ledger.RecordDaily(ctx, &domain.DailyProgress{
			UserID:            owner.UserID,
			Date:              now,
			CardsStudied:      newAnswers,
			CardsLearned:      learned,
			TimeSpentSeconds:  secondsDelta,
			SessionsCompleted: 1,
		}); err != nil {
			return err
		}

		// Streak always derives from the durable daily rows, never from
		// an incrementally maintained counter.
		if err := ledger.RecomputeStreak(ctx, stats, now); err != nil {
			return err
		}

		// Completion achievements are a guaranteed side effect of
		// finishing, so this call participates in the transaction.
		unlocked, err := s.evaluator.Evaluate(ctx, owner.UserID, sessionMetrics(stored, now))
		if err != nil {
			return fmt.Errorf("achievement evaluation failed: %w", err)
		}

		if err := ledger.SaveSnapshot(ctx, stats); err != nil {
			return err
		}

		result.Stats = stats
		result.LeveledUp = stats.Level > levelBefore
		result.CurrentStreak = stats.CurrentStreak
		result.UnlockedAchievements = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("study session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("score", result.Session.Score),
		slog.Int("xp_earned", result.XPEarned),
		slog.Bool("guest", owner.IsGuest()))

	return result, nil
}

// AbandonSession implements Service.AbandonSession.
func (s *serviceImpl) AbandonSession(
	ctx context.Context,
	owner Owner,
	sessionID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadOwnedSession(ctx, s.sessionStore, owner, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case domain.SessionStatusCompleted:
		return nil, ErrAlreadyCompleted
	case domain.SessionStatusAbandoned:
		// Already abandoned; nothing to do.
		return session, nil
	}

	now := s.now()
	session.Status = domain.SessionStatusAbandoned
	session.LastActivityAt = now
	session.UpdatedAt = now

	if err := s.sessionStore.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist abandoned session: %w", err)
	}

	log.Info("study session abandoned", slog.String("session_id", sessionID.String()))
	return session, nil
}

// PostponeCard implements Service.PostponeCard.
func (s *serviceImpl) PostponeCard(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	days int,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, ErrNoOwner
	}

	prior, err := s.progressStore.Get(ctx, userID, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardProgressNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load card progress: %w", err)
	}

	updated, err := s.srsService.PostponeReview(prior, days, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.progressStore.Upsert(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to persist postponed review: %w", err)
	}

	log.Info("card review postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", days))

	return updated, nil
}

// loadOwnedSession fetches a session and verifies the caller owns it.
func (s *serviceImpl) loadOwnedSession(
	ctx context.Context,
	sessions store.StudySessionStore,
	owner Owner,
	sessionID uuid.UUID,
) (*domain.StudySession, error) {
	if !owner.Valid() {
		return nil, ErrNoOwner
	}

	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	owned := session.OwnedBy(owner.UserID)
	if owner.IsGuest() {
		owned = session.OwnedByGuest(owner.GuestToken)
	}
	if !owned {
		return nil, ErrForbidden
	}

	return session, nil
}

// applyOutcomes runs the scheduler once per answered card and upserts the
// resulting progress. It returns how many cards were newly learned
// (first-ever correct answer) and the net change in mastered cards,
// which is negative when failures demote previously mastered cards.
func (s *serviceImpl) applyOutcomes(
	ctx context.Context,
	progressStore store.CardProgressStore,
	userID uuid.UUID,
	session *domain.StudySession,
	outcomes []CardOutcome,
	now time.Time,
) (learned, masteredDelta int, err error) {
	for _, outcome := range outcomes {
		if !session.ContainsCard(outcome.CardID) {
			continue
		}

		prior, err := progressStore.Get(ctx, userID, outcome.CardID)
		if err != nil {
			if !errors.Is(err, store.ErrCardProgressNotFound) {
				return 0, 0, err
			}
			prior, err = domain.NewCardProgress(userID, outcome.CardID)
			if err != nil {
				return 0, 0, err
			}
		}

		wasMastered := prior.Status == domain.ProgressStatusMastered
		firstCorrect := outcome.WasCorrect && prior.NeverAnsweredCorrectly()

		updated, err := s.srsService.CalculateNextReview(
			prior,
			srs.QualityForAnswer(outcome.WasCorrect),
			now,
		)
		if err != nil {
			return 0, 0, err
		}

		if err := progressStore.Upsert(ctx, updated); err != nil {
			return 0, 0, err
		}

		if firstCorrect {
			learned++
		}
		isMastered := updated.Status == domain.ProgressStatusMastered
		if isMastered && !wasMastered {
			masteredDelta++
		}
		if !isMastered && wasMastered {
			masteredDelta--
		}
	}

	return learned, masteredDelta, nil
}

// autosaveDelta is what one autosave newly introduced relative to the
// previously persisted snapshot.
type autosaveDelta struct {
	xp         int
	seconds    int
	newAnswers int
	newCorrect int
}

func (d autosaveDelta) empty() bool {
	return d.xp == 0 && d.seconds == 0 && d.newAnswers == 0
}

// applyAutosave merges the partial update into the session and returns
// the delta against the prior snapshot. Absolute values become the new
// baseline; deltas are clamped at zero so stale or replayed payloads
// credit nothing.
func applyAutosave(session *domain.StudySession, req AutosaveRequest, now time.Time) autosaveDelta {
	var delta autosaveDelta

	for cardID, outcome := range req.Answers {
		if !session.ContainsCard(cardID) {
			continue
		}
		if _, seen := session.Answers[cardID]; seen {
			continue
		}
		session.Answers[cardID] = outcome
		delta.newAnswers++
		if outcome == domain.AnswerOutcomeCorrect {
			delta.newCorrect++
		}
	}

	if req.CurrentIndex != nil {
		idx := *req.CurrentIndex
		if idx >= 0 && idx <= len(session.CardIDs) {
			session.CurrentIndex = idx
		}
	}
	if req.Streak != nil && *req.Streak >= 0 {
		session.Streak = *req.Streak
	}
	if req.SessionXP != nil {
		delta.xp = maxInt(0, *req.SessionXP-session.SessionXP)
		if *req.SessionXP >= 0 {
			session.SessionXP = *req.SessionXP
		}
	}
	if req.DurationSeconds != nil {
		delta.seconds = maxInt(0, *req.DurationSeconds-session.DurationSeconds)
		if *req.DurationSeconds >= 0 {
			session.DurationSeconds = *req.DurationSeconds
		}
	}

	session.LastActivityAt = now
	session.UpdatedAt = now
	return delta
}

// finalizeSession writes the terminal tallies onto the session.
func finalizeSession(session *domain.StudySession, req CompleteRequest, now time.Time) {
	for _, outcome := range req.Outcomes {
		if !session.ContainsCard(outcome.CardID) {
			continue
		}
		if _, seen := session.Answers[outcome.CardID]; seen {
			continue
		}
		if outcome.WasCorrect {
			session.Answers[outcome.CardID] = domain.AnswerOutcomeCorrect
		} else {
			session.Answers[outcome.CardID] = domain.AnswerOutcomeIncorrect
		}
	}

	if req.DurationSeconds > session.DurationSeconds {
		session.DurationSeconds = req.DurationSeconds
	}

	session.Status = domain.SessionStatusCompleted
	session.Score = req.Score
	session.CorrectCount = req.CorrectCount
	session.IncorrectCount = req.IncorrectCount
	session.SkippedCount = req.SkippedCount
	session.CompletedAt = &now
	session.LastActivityAt = now
	session.UpdatedAt = now
}

// liveSessionMetrics derives the evaluator's input mid-session, before
// completion stamps the final tallies: the correct count comes from the
// recorded answers, and the running score is measured against the whole
// working set so a perfect score means every card answered correctly.
func liveSessionMetrics(session *domain.StudySession, now time.Time) achievement.SessionMetrics {
	correct := 0
	for _, outcome := range session.Answers {
		if outcome == domain.AnswerOutcomeCorrect {
			correct++
		}
	}

	score := 0
	if len(session.CardIDs) > 0 {
		score = correct * 100 / len(session.CardIDs)
	}

	return achievement.SessionMetrics{
		TotalCards:      len(session.CardIDs),
		CorrectCount:    correct,
		Score:           score,
		SessionXP:       session.SessionXP,
		DurationSeconds: session.DurationSeconds,
		CompletedAtHour: now.Hour(),
	}
}

// sessionMetrics derives the evaluator's input from a session snapshot.
func sessionMetrics(session *domain.StudySession, now time.Time) achievement.SessionMetrics {
	return achievement.SessionMetrics{
		TotalCards:      len(session.CardIDs),
		CorrectCount:    session.CorrectCount,
		Score:           session.Score,
		SessionXP:       session.SessionXP,
		DurationSeconds: session.DurationSeconds,
		CompletedAtHour: now.Hour(),
	}
}

// progressForCards narrows a progress map to the session's working set.
func progressForCards(
	progress map[uuid.UUID]*domain.CardProgress,
	cardIDs []uuid.UUID,
) map[uuid.UUID]*domain.CardProgress {
	if progress == nil {
		return nil
	}
	out := make(map[uuid.UUID]*domain.CardProgress, len(cardIDs))
	for _, id := range cardIDs {
		if p, ok := progress[id]; ok {
			out[id] = p
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
