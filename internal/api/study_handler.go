// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/api/middleware"
	"github.com/NoisimRo/Flashcards-sub000/internal/api/shared"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/study"
)

// StudyHandler handles session lifecycle HTTP requests.
type StudyHandler struct {
	studyService study.Service
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("study service cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// resolveOwner builds the session owner from the identity the middleware
// placed in the request context: an authenticated user ID or a guest
// token, never both.
func resolveOwner(r *http.Request) (study.Owner, bool) {
	if userID, ok := middleware.GetUserID(r); ok && userID != uuid.Nil {
		return study.Owner{UserID: userID}, true
	}
	if token, ok := middleware.GetGuestToken(r); ok && token != uuid.Nil {
		return study.Owner{GuestToken: token}, true
	}
	return study.Owner{}, false
}

// sessionIDFromURL parses the {id} path parameter.
func sessionIDFromURL(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// respondServiceError maps a service error onto the wire: status code,
// machine-readable kind and a sanitized message. The raw error is only
// logged server-side.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(
		w, r,
		MapErrorToStatusCode(err),
		MapErrorToKind(err),
		GetSafeErrorMessage(err),
		err,
	)
}

// CreateSession handles POST /study/sessions requests.
func (h *StudyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	owner, ok := resolveOwner(r)
	if !ok {
		log.Warn("neither user ID nor guest token found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation, err.Error())
		return
	}

	view, err := h.studyService.CreateSession(r.Context(), owner, study.CreateSessionRequest{
		DeckID:          req.DeckID,
		Method:          domain.SelectionMethod(req.Method),
		CardCount:       req.CardCount,
		ExplicitCardIDs: req.CardIDs,
		ExcludeMastered: req.ExcludeMastered,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("session created",
		slog.String("session_id", view.Session.ID.String()),
		slog.String("deck_id", req.DeckID.String()),
		slog.Int("card_count", len(view.Cards)))

	shared.RespondWithJSON(w, r, http.StatusCreated, viewToResponse(view))
}

// GetSession handles GET /study/sessions/{id} requests.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	owner, ok := resolveOwner(r)
	if !ok {
		log.Warn("neither user ID nor guest token found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid session ID format")
		return
	}

	view, err := h.studyService.GetSession(r.Context(), owner, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, viewToResponse(view))
}

// AutosaveSession handles PATCH /study/sessions/{id} requests.
func (h *StudyHandler) AutosaveSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	owner, ok := resolveOwner(r)
	if !ok {
		log.Warn("neither user ID nor guest token found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid session ID format")
		return
	}

	var req AutosaveRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation, err.Error())
		return
	}

	answers, err := parseAnswers(req.Answers)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation, err.Error())
		return
	}

	result, err := h.studyService.Autosave(r.Context(), owner, sessionID, study.AutosaveRequest{
		CurrentIndex:    req.CurrentIndex,
		Answers:         answers,
		Streak:          req.Streak,
		SessionXP:       req.SessionXP,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AutosaveResponse{
		Session:              sessionToResponse(result.Session),
		Stats:                statsToResponse(result.Stats),
		UnlockedAchievements: result.UnlockedAchievements,
	})
}

// CompleteSession handles POST /study/sessions/{id}/complete requests.
func (h *StudyHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	owner, ok := resolveOwner(r)
	if !ok {
		log.Warn("neither user ID nor guest token found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid session ID format")
		return
	}

	var req CompleteSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation, err.Error())
		return
	}

	outcomes := make([]study.CardOutcome, 0, len(req.Outcomes))
	for _, o := range req.Outcomes {
		outcomes = append(outcomes, study.CardOutcome{
			CardID:     o.CardID,
			WasCorrect: o.WasCorrect,
		})
	}

	result, err := h.studyService.CompleteSession(r.Context(), owner, sessionID, study.CompleteRequest{
		Score:           req.Score,
		CorrectCount:    req.CorrectCount,
		IncorrectCount:  req.IncorrectCount,
		SkippedCount:    req.SkippedCount,
		DurationSeconds: req.DurationSeconds,
		Outcomes:        outcomes,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("xp_earned", result.XPEarned),
		slog.Bool("leveled_up", result.LeveledUp))

	shared.RespondWithJSON(w, r, http.StatusOK, CompleteSessionResponse{
		Session:              sessionToResponse(result.Session),
		Stats:                statsToResponse(result.Stats),
		XPEarned:             result.XPEarned,
		LeveledUp:            result.LeveledUp,
		CurrentStreak:        result.CurrentStreak,
		UnlockedAchievements: result.UnlockedAchievements,
	})
}

// AbandonSession handles POST /study/sessions/{id}/abandon requests.
func (h *StudyHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	owner, ok := resolveOwner(r)
	if !ok {
		log.Warn("neither user ID nor guest token found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid session ID format")
		return
	}

	session, err := h.studyService.AbandonSession(r.Context(), owner, sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// PostponeCard handles POST /study/cards/{id}/postpone requests.
func (h *StudyHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"Authentication required")
		return
	}

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid card ID format")
		return
	}

	var req PostponeCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation,
			"Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, KindValidation, err.Error())
		return
	}

	progress, err := h.studyService.PostponeCard(r.Context(), userID, cardID, req.Days)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Debug("card review postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", req.Days))

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(progress))
}

// parseAnswers converts wire-format answers (string keys and values)
// into domain form. Outcome values are validated by the service.
func parseAnswers(raw map[string]string) (map[uuid.UUID]domain.AnswerOutcome, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	answers := make(map[uuid.UUID]domain.AnswerOutcome, len(raw))
	for key, value := range raw {
		cardID, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: answer key %q is not a valid card ID", domain.ErrValidation, key)
		}
		answers[cardID] = domain.AnswerOutcome(value)
	}
	return answers, nil
}
