package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/NoisimRo/Flashcards-sub000/internal/config"
	"github.com/NoisimRo/Flashcards-sub000/internal/domain/srs"
	"github.com/NoisimRo/Flashcards-sub000/internal/platform/postgres"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/achievement"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/auth"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/progression"
	"github.com/NoisimRo/Flashcards-sub000/internal/service/study"
	"github.com/NoisimRo/Flashcards-sub000/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	deckStore     store.DeckStore
	cardStore     store.CardStore
	progressStore store.CardProgressStore
	sessionStore  store.StudySessionStore
	statsStore    store.UserStatsStore
	dailyStore    store.DailyProgressStore

	// Service interfaces
	jwtService   auth.JWTService
	srsService   srs.Service
	evaluator    achievement.Evaluator
	ledger       progression.Ledger
	studyService study.Service
}

// newApplication creates a new application instance with all
// dependencies initialized. Configuration, logger and database
// connection must be established before calling this.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized")

	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.progressStore = postgres.NewPostgresCardProgressStore(db, logger)
	app.sessionStore = postgres.NewPostgresStudySessionStore(db, logger)
	app.statsStore = postgres.NewPostgresUserStatsStore(db, logger)
	app.dailyStore = postgres.NewPostgresDailyProgressStore(db, logger)

	app.srsService = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MasteredIntervalDays: cfg.Study.MasteredIntervalDays,
	}))

	app.evaluator = achievement.NewDefaultEvaluator()

	app.ledger = progression.NewLedger(
		app.statsStore,
		app.dailyStore,
		cfg.Study.BaseLevelXP,
		cfg.Study.LevelGrowthPercent,
		logger,
	)

	app.studyService = study.NewService(
		db,
		app.deckStore,
		app.cardStore,
		app.progressStore,
		app.sessionStore,
		app.ledger,
		app.srsService,
		app.evaluator,
		cfg.Study.DefaultCardCount,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
