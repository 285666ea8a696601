package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NoisimRo/Flashcards-sub000/internal/api"
	apiMiddleware "github.com/NoisimRo/Flashcards-sub000/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	progressionHandler := api.NewProgressionHandler(app.ledger, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Study routes accept either an authenticated learner or a guest token.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Identify)
			r.Post("/study/sessions", studyHandler.CreateSession)
			r.Get("/study/sessions/{id}", studyHandler.GetSession)
			r.Patch("/study/sessions/{id}", studyHandler.AutosaveSession)
			r.Post("/study/sessions/{id}/complete", studyHandler.CompleteSession)
			r.Post("/study/sessions/{id}/abandon", studyHandler.AbandonSession)
		})

		// Progression and scheduling routes require a full account.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/study/cards/{id}/postpone", studyHandler.PostponeCard)
			r.Get("/progression", progressionHandler.GetProgression)
			r.Post("/progression/streak-shield", progressionHandler.ArmStreakShield)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
