package study

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/srs"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/achievement"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/progression"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// In-memory fakes. WithTx methods return the same fake: the tests drive
// the service with a pass-through transaction runner.

type fakeDeckStore struct {
	decks map[uuid.UUID]*domain.Deck
}

func (f *fakeDeckStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	d, ok := f.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	return d, nil
}

type fakeCardStore struct {
	cards []*domain.Card
}

func (f *fakeCardStore) ListByDeck(_ context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	out := make([]*domain.Card, 0)
	for _, c := range f.cards {
		if c.DeckID == deckID && !c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCardStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Card, error) {
	byID := make(map[uuid.UUID]*domain.Card)
	for _, c := range f.cards {
		byID[c.ID] = c
	}
	out := make([]*domain.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type progressKey struct {
	userID uuid.UUID
	cardID uuid.UUID
}

type fakeProgressStore struct {
	rows map[progressKey]*domain.CardProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{rows: make(map[progressKey]*domain.CardProgress)}
}

func (f *fakeProgressStore) Get(
	_ context.Context,
	userID, cardID uuid.UUID,
) (*domain.CardProgress, error) {
	p, ok := f.rows[progressKey{userID, cardID}]
	if !ok {
		return nil, store.ErrCardProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgressStore) GetByUserAndCards(
	_ context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
) (map[uuid.UUID]*domain.CardProgress, error) {
	out := make(map[uuid.UUID]*domain.CardProgress)
	for _, id := range cardIDs {
		if p, ok := f.rows[progressKey{userID, id}]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeProgressStore) Upsert(_ context.Context, p *domain.CardProgress) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := *p
	f.rows[progressKey{p.UserID, p.CardID}] = &cp
	return nil
}

func (f *fakeProgressStore) WithTxCardProgressStore(_ *sql.Tx) store.CardProgressStore {
	return f
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]*domain.StudySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.StudySession)}
}

func copySession(s *domain.StudySession) *domain.StudySession {
	cp := *s
	cp.CardIDs = append([]uuid.UUID(nil), s.CardIDs...)
	cp.Answers = make(map[uuid.UUID]domain.AnswerOutcome, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	return &cp
}

func (f *fakeSessionStore) Create(_ context.Context, s *domain.StudySession) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.sessions[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.StudySession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return copySession(s), nil
}

func (f *fakeSessionStore) Update(_ context.Context, s *domain.StudySession) error {
	if _, ok := f.sessions[s.ID]; !ok {
		return store.ErrSessionNotFound
	}
	f.sessions[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessionStore) ListActiveCardIDs(
	_ context.Context,
	userID uuid.UUID,
) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{})
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == domain.SessionStatusActive {
			for _, id := range s.CardIDs {
				out[id] = struct{}{}
			}
		}
	}
	return out, nil
}

func (f *fakeSessionStore) WithTxStudySessionStore(_ *sql.Tx) store.StudySessionStore {
	return f
}

type fakeStatsStore struct {
	stats map[uuid.UUID]*domain.UserStats
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{stats: make(map[uuid.UUID]*domain.UserStats)}
}

func (f *fakeStatsStore) Get(_ context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	s, ok := f.stats[userID]
	if !ok {
		return nil, store.ErrUserStatsNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStatsStore) Create(_ context.Context, s *domain.UserStats) error {
	if _, ok := f.stats[s.UserID]; ok {
		return store.ErrDuplicate
	}
	cp := *s
	f.stats[s.UserID] = &cp
	return nil
}

func (f *fakeStatsStore) Update(_ context.Context, s *domain.UserStats) error {
	if _, ok := f.stats[s.UserID]; !ok {
		return store.ErrUserStatsNotFound
	}
	cp := *s
	f.stats[s.UserID] = &cp
	return nil
}

func (f *fakeStatsStore) WithTxUserStatsStore(_ *sql.Tx) store.UserStatsStore {
	return f
}

type fakeDailyStore struct {
	rows map[uuid.UUID]map[time.Time]*domain.DailyProgress
}

func newFakeDailyStore() *fakeDailyStore {
	return &fakeDailyStore{rows: make(map[uuid.UUID]map[time.Time]*domain.DailyProgress)}
}

func (f *fakeDailyStore) Upsert(_ context.Context, delta *domain.DailyProgress) error {
	if err := delta.Validate(); err != nil {
		return err
	}
	byDay, ok := f.rows[delta.UserID]
	if !ok {
		byDay = make(map[time.Time]*domain.DailyProgress)
		f.rows[delta.UserID] = byDay
	}
	day := domain.DateOf(delta.Date)
	row, ok := byDay[day]
	if !ok {
		row = &domain.DailyProgress{UserID: delta.UserID, Date: day}
		byDay[day] = row
	}
	row.CardsStudied += delta.CardsStudied
	row.CardsLearned += delta.CardsLearned
	row.TimeSpentSeconds += delta.TimeSpentSeconds
	row.XPEarned += delta.XPEarned
	row.SessionsCompleted += delta.SessionsCompleted
	return nil
}

func (f *fakeDailyStore) ListSince(
	_ context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]*domain.DailyProgress, error) {
	out := make([]*domain.DailyProgress, 0)
	for _, row := range f.rows[userID] {
		if !row.Date.Before(domain.DateOf(since)) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDailyStore) WithTxDailyProgressStore(_ *sql.Tx) store.DailyProgressStore {
	return f
}

// testEnv bundles a service wired to in-memory fakes.
type testEnv struct {
	svc        *serviceImpl
	deckID     uuid.UUID
	cards      []*domain.Card
	sessions   *fakeSessionStore
	progress   *fakeProgressStore
	statsStore *fakeStatsStore
	dailyStore *fakeDailyStore
	now        time.Time
}

// newTestEnv builds a deck of six cards, three standard followed by
// three quiz, in position order.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	deckID := uuid.New()
	cards := make([]*domain.Card, 0, 6)
	for i := 0; i < 6; i++ {
		cardType := domain.CardTypeStandard
		card, err := domain.NewCard(deckID, "front", "back", cardType, i)
		require.NoError(t, err)
		if i >= 3 {
			card.Type = domain.CardTypeQuiz
			card.Options = []string{"a", "b"}
			card.CorrectIndexes = []int{0}
		}
		cards = append(cards, card)
	}

	sessions := newFakeSessionStore()
	progress := newFakeProgressStore()
	statsStore := newFakeStatsStore()
	dailyStore := newFakeDailyStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := &serviceImpl{
		deckStore:        &fakeDeckStore{decks: map[uuid.UUID]*domain.Deck{deckID: {ID: deckID, Title: "deck"}}},
		cardStore:        &fakeCardStore{cards: cards},
		progressStore:    progress,
		sessionStore:     sessions,
		ledger:           progression.NewLedger(statsStore, dailyStore, 100, 20, nil),
		srsService:       srs.NewDefaultService(),
		evaluator:        achievement.NewDefaultEvaluator(),
		defaultCardCount: 0,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:              func() time.Time { return now },
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
	}

	return &testEnv{
		svc:        svc,
		deckID:     deckID,
		cards:      cards,
		sessions:   sessions,
		progress:   progress,
		statsStore: statsStore,
		dailyStore: dailyStore,
		now:        now,
	}
}

func intPtr(v int) *int { return &v }

func TestCreateSessionInterleavesTypes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}

	view, err := env.svc.CreateSession(context.Background(), owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	require.Len(t, view.Cards, 6)
	assert.Equal(t, domain.SessionStatusActive, view.Session.Status)
	assert.Equal(t, 0, view.Session.CurrentIndex)

	// Standard appears first in deck order, then types alternate.
	wantTypes := []domain.CardType{
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeQuiz,
		domain.CardTypeStandard, domain.CardTypeQuiz,
	}
	for i, card := range view.Cards {
		assert.Equal(t, wantTypes[i], card.Type, "position %d", i)
		assert.Equal(t, card.ID, view.Session.CardIDs[i], "frozen order mismatch at %d", i)
	}
}

func TestCreateSessionGuestSkipsProgress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{GuestToken: uuid.New()}

	view, err := env.svc.CreateSession(context.Background(), owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodRandom,
	})
	require.NoError(t, err)

	assert.True(t, view.Session.IsGuest())
	assert.Nil(t, view.Progress)
	assert.Len(t, view.Cards, 6)
}

func TestCreateSessionReportsSelectionPool(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	mastered, err := domain.NewCardProgress(owner.UserID, env.cards[0].ID)
	require.NoError(t, err)
	mastered.Status = domain.ProgressStatusMastered
	require.NoError(t, env.progress.Upsert(ctx, mastered))

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID:          env.deckID,
		Method:          domain.SelectionMethodAll,
		ExcludeMastered: true,
	})
	require.NoError(t, err)

	require.NotNil(t, view.Selection)
	assert.Equal(t, 5, view.Selection.AvailableCount)
	assert.Equal(t, 1, view.Selection.MasteredCount)
	assert.Len(t, view.Cards, 5)
}

func TestCreateSessionDeckNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.svc.CreateSession(context.Background(), Owner{UserID: uuid.New()}, CreateSessionRequest{
		DeckID: uuid.New(),
		Method: domain.SelectionMethodAll,
	})
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestCreateSessionInvalidMethod(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.svc.CreateSession(context.Background(), Owner{UserID: uuid.New()}, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethod("bogus"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSelectionMethod)
}

func TestAutosaveIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	payload := AutosaveRequest{
		CurrentIndex: intPtr(2),
		Answers: map[uuid.UUID]domain.AnswerOutcome{
			view.Session.CardIDs[0]: domain.AnswerOutcomeCorrect,
			view.Session.CardIDs[1]: domain.AnswerOutcomeIncorrect,
		},
		SessionXP:       intPtr(30),
		DurationSeconds: intPtr(90),
	}

	first, err := env.svc.Autosave(ctx, owner, view.Session.ID, payload)
	require.NoError(t, err)
	require.NotNil(t, first.Stats)
	assert.Equal(t, 30, first.Stats.TotalXP)
	assert.Equal(t, 90, first.Stats.TimeSpentSeconds)
	assert.Equal(t, 2, first.Stats.TotalAnswers)
	assert.Equal(t, 1, first.Stats.CorrectAnswers)

	// An identical replay produces zero deltas across the board.
	second, err := env.svc.Autosave(ctx, owner, view.Session.ID, payload)
	require.NoError(t, err)
	stats, err := env.statsStore.Get(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 30, stats.TotalXP)
	assert.Equal(t, 90, stats.TimeSpentSeconds)
	assert.Equal(t, 2, stats.TotalAnswers)
	assert.Equal(t, 1, stats.CorrectAnswers)
	assert.Equal(t, 30, second.Session.SessionXP)

	days, err := env.dailyStore.ListSince(ctx, owner.UserID, env.now)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 30, days[0].XPEarned)
	assert.Equal(t, 90, days[0].TimeSpentSeconds)
	assert.Equal(t, 2, days[0].CardsStudied)
}

// recordingEvaluator captures the metrics each Evaluate call receives.
type recordingEvaluator struct {
	seen []achievement.SessionMetrics
}

func (r *recordingEvaluator) Evaluate(
	_ context.Context,
	_ uuid.UUID,
	metrics achievement.SessionMetrics,
) ([]string, error) {
	r.seen = append(r.seen, metrics)
	return nil, nil
}

func TestAutosaveEvaluatesLiveCorrectCount(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	recorder := &recordingEvaluator{}
	env.svc.evaluator = recorder
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	_, err = env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
		Answers: map[uuid.UUID]domain.AnswerOutcome{
			view.Session.CardIDs[0]: domain.AnswerOutcomeCorrect,
			view.Session.CardIDs[1]: domain.AnswerOutcomeCorrect,
			view.Session.CardIDs[2]: domain.AnswerOutcomeIncorrect,
		},
		SessionXP: intPtr(30),
	})
	require.NoError(t, err)

	// The evaluator sees the running tally from the recorded answers,
	// not the final counters stamped at completion.
	require.Len(t, recorder.seen, 1)
	metrics := recorder.seen[0]
	assert.Equal(t, 2, metrics.CorrectCount)
	assert.Equal(t, 6, metrics.TotalCards)
	assert.Equal(t, 2*100/6, metrics.Score)
	assert.Equal(t, 30, metrics.SessionXP)
}

func TestAutosaveShrinkingTotalsCreditNothing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	_, err = env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
		SessionXP:       intPtr(50),
		DurationSeconds: intPtr(120),
	})
	require.NoError(t, err)

	// A stale retry with smaller totals is clamped to a zero delta.
	_, err = env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
		SessionXP:       intPtr(20),
		DurationSeconds: intPtr(60),
	})
	require.NoError(t, err)

	stats, err := env.statsStore.Get(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.TotalXP)
	assert.Equal(t, 120, stats.TimeSpentSeconds)
}

func TestAutosaveGuestWritesNoProgression(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{GuestToken: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	result, err := env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
		SessionXP: intPtr(40),
		Answers: map[uuid.UUID]domain.AnswerOutcome{
			view.Session.CardIDs[0]: domain.AnswerOutcomeCorrect,
		},
	})
	require.NoError(t, err)

	assert.Nil(t, result.Stats)
	assert.Equal(t, 40, result.Session.SessionXP)
	assert.Empty(t, env.statsStore.stats)
	assert.Empty(t, env.dailyStore.rows)
}

func TestAutosaveOnTerminalSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	_, err = env.svc.AbandonSession(ctx, owner, view.Session.ID)
	require.NoError(t, err)

	_, err = env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{SessionXP: intPtr(10)})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestCompleteEndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	outcomes := make([]CardOutcome, 0, 6)
	for _, id := range view.Session.CardIDs {
		outcomes = append(outcomes, CardOutcome{CardID: id, WasCorrect: true})
	}

	result, err := env.svc.CompleteSession(ctx, owner, view.Session.ID, CompleteRequest{
		Score:           100,
		CorrectCount:    6,
		DurationSeconds: 300,
		Outcomes:        outcomes,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusCompleted, result.Session.Status)
	assert.Equal(t, 100, result.Session.Score)
	require.NotNil(t, result.Session.CompletedAt)
	assert.Contains(t, result.UnlockedAchievements, achievement.PerfectSession)

	require.NotNil(t, result.Stats)
	assert.Equal(t, 6, result.Stats.CardsLearned)
	assert.Equal(t, 6, result.Stats.TotalAnswers)
	assert.Equal(t, 6, result.Stats.CorrectAnswers)
	assert.Equal(t, 1, result.Stats.DecksCompleted)
	assert.Equal(t, 1, result.CurrentStreak, "completing today starts a one-day streak")

	// Every card got exactly one successful scheduler pass.
	for _, id := range view.Session.CardIDs {
		p, err := env.progress.Get(ctx, owner.UserID, id)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Repetitions)
		assert.Equal(t, 1, p.Interval)
		assert.Equal(t, domain.ProgressStatusLearning, p.Status)
		assert.Equal(t, 1, p.TimesCorrect)
	}
}

func TestCompleteTwiceReturnsAlreadyCompleted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	req := CompleteRequest{Score: 50, CorrectCount: 3, IncorrectCount: 3, DurationSeconds: 100}

	_, err = env.svc.CompleteSession(ctx, owner, view.Session.ID, req)
	require.NoError(t, err)

	_, err = env.svc.CompleteSession(ctx, owner, view.Session.ID, req)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The guard also means aggregates were written exactly once.
	stats, err := env.statsStore.Get(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DecksCompleted)
}

func TestCompleteNeverCreditsMoreThanSessionXP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	// Repeated growing autosaves, with replays in between.
	for _, xp := range []int{10, 10, 25, 25, 60} {
		_, err := env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
			SessionXP: intPtr(xp),
		})
		require.NoError(t, err)
	}

	result, err := env.svc.CompleteSession(ctx, owner, view.Session.ID, CompleteRequest{
		Score:           100,
		CorrectCount:    6,
		DurationSeconds: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, 60, result.XPEarned)
	stats, err := env.statsStore.Get(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 60, stats.TotalXP,
		"lifetime XP must equal the session's final XP, not a multiple of it")
}

func TestCompleteForbiddenForOtherLearner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	intruder := Owner{UserID: uuid.New()}
	_, err = env.svc.CompleteSession(ctx, intruder, view.Session.ID, CompleteRequest{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.GetSession(ctx, Owner{GuestToken: uuid.New()}, view.Session.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAbandonSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	session, err := env.svc.AbandonSession(ctx, owner, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusAbandoned, session.Status)

	// Abandoning again is a no-op, completing afterwards is rejected.
	again, err := env.svc.AbandonSession(ctx, owner, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusAbandoned, again.Status)

	_, err = env.svc.CompleteSession(ctx, owner, view.Session.ID, CompleteRequest{})
	assert.ErrorIs(t, err, ErrSessionNotActive)

	// No progression was ever credited.
	assert.Empty(t, env.statsStore.stats)
}

func TestGetSessionRestoresState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	owner := Owner{UserID: uuid.New()}
	ctx := context.Background()

	view, err := env.svc.CreateSession(ctx, owner, CreateSessionRequest{
		DeckID: env.deckID,
		Method: domain.SelectionMethodAll,
	})
	require.NoError(t, err)

	_, err = env.svc.Autosave(ctx, owner, view.Session.ID, AutosaveRequest{
		CurrentIndex: intPtr(3),
		Answers: map[uuid.UUID]domain.AnswerOutcome{
			view.Session.CardIDs[0]: domain.AnswerOutcomeCorrect,
			view.Session.CardIDs[1]: domain.AnswerOutcomeSkipped,
		},
		SessionXP:       intPtr(15),
		DurationSeconds: intPtr(45),
	})
	require.NoError(t, err)

	restored, err := env.svc.GetSession(ctx, owner, view.Session.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, restored.Session.CurrentIndex)
	assert.Equal(t, 15, restored.Session.SessionXP)
	assert.Equal(t, 45, restored.Session.DurationSeconds)
	assert.Len(t, restored.Session.Answers, 2)
	assert.Equal(t, view.Session.CardIDs, restored.Session.CardIDs,
		"persisted card order is authoritative")
	assert.Len(t, restored.Cards, 6)
	assert.Nil(t, restored.Selection, "selection runs only at creation")
}

func TestPostponeCard(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	userID := uuid.New()
	cardID := env.cards[0].ID
	ctx := context.Background()

	prior, err := domain.NewCardProgress(userID, cardID)
	require.NoError(t, err)
	prior.Status = domain.ProgressStatusLearning
	prior.Interval = 4
	prior.EaseFactor = 2.2
	prior.Repetitions = 3
	prior.NextReviewAt = env.now.AddDate(0, 0, 2)
	require.NoError(t, env.progress.Upsert(ctx, prior))

	updated, err := env.svc.PostponeCard(ctx, userID, cardID, 5)
	require.NoError(t, err)

	assert.True(t, updated.NextReviewAt.Equal(env.now.AddDate(0, 0, 7)))
	assert.Equal(t, 4, updated.Interval, "memory state is untouched")
	assert.Equal(t, 2.2, updated.EaseFactor)
	assert.Equal(t, 3, updated.Repetitions)

	stored, err := env.progress.Get(ctx, userID, cardID)
	require.NoError(t, err)
	assert.True(t, stored.NextReviewAt.Equal(env.now.AddDate(0, 0, 7)),
		"postponed review is persisted")
}

func TestPostponeCardErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	userID := uuid.New()
	cardID := env.cards[0].ID
	ctx := context.Background()

	_, err := env.svc.PostponeCard(ctx, userID, cardID, 3)
	assert.ErrorIs(t, err, store.ErrCardProgressNotFound,
		"never-studied cards have nothing to postpone")

	prior, err := domain.NewCardProgress(userID, cardID)
	require.NoError(t, err)
	require.NoError(t, env.progress.Upsert(ctx, prior))

	_, err = env.svc.PostponeCard(ctx, userID, cardID, 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)

	_, err = env.svc.PostponeCard(ctx, uuid.Nil, cardID, 3)
	assert.ErrorIs(t, err, ErrNoOwner)
}
