package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NoisimRo/Flashcards-sub000/internal/api/middleware"
	"github.com/NoisimRo/Flashcards-sub000/internal/api/shared"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/logger"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/progression"
)

// ProgressionHandler handles progression-related HTTP requests. These
// routes require an authenticated user; guests accumulate no durable
// progression.
type ProgressionHandler struct {
	ledger progression.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewProgressionHandler creates a new ProgressionHandler.
func NewProgressionHandler(ledger progression.Ledger, logger *slog.Logger) *ProgressionHandler {
	if ledger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("ledger cannot be nil for ProgressionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressionHandler")
	}

	return &ProgressionHandler{
		ledger: ledger,
		logger: logger.With(slog.String("component", "progression_handler")),
		now:    time.Now,
	}
}

// GetProgression handles GET /progression requests. The streak is
// recomputed against the current date so a snapshot fetched after a
// missed day reflects the break immediately.
func (h *ProgressionHandler) GetProgression(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"User ID not found or invalid")
		return
	}

	stats, err := h.ledger.GetSnapshot(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	streakBefore := stats.CurrentStreak
	shieldBefore := stats.StreakShieldArmed
	if err := h.ledger.RecomputeStreak(r.Context(), stats, h.now()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if stats.CurrentStreak != streakBefore || stats.StreakShieldArmed != shieldBefore {
		if err := h.ledger.SaveSnapshot(r.Context(), stats); err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// ArmStreakShield handles POST /progression/streak-shield requests.
func (h *ProgressionHandler) ArmStreakShield(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, KindValidation,
			"User ID not found or invalid")
		return
	}

	stats, err := h.ledger.ArmStreakShield(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info("streak shield armed", slog.String("user_id", userID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}
