package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"review-insights/internal/classify"
	"review-insights/internal/growth"
	"review-insights/internal/highlights"
	"review-insights/internal/llm"
	"review-insights/internal/llm/providers"
	"review-insights/internal/reviews"
	"review-insights/internal/seniority"
	"review-insights/internal/settings"
	"review-insights/internal/shared/config"
	"review-insights/internal/shared/storage/db"
	"review-insights/internal/shared/telemetry"
)

// App holds shared dependencies for one process.
type App struct {
	Config   config.Config
	DB       *sql.DB
	Settings settings.Source
	// LLM is nil when no provider is configured; the services then report
	// llm.ErrNotConfigured.
	LLM llm.Service

	Reviews    reviews.Reader
	Highlights highlights.Repo
	Profiles   seniority.Repo

	Classifier       *classify.Classifier
	HighlightService *highlights.Service
	GrowthService    *growth.Service
	SeniorityService *seniority.Service
}

// Build prepares repositories, the LLM adapter and the services.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}
	if sqlDB != nil {
		app.Reviews = &reviews.PGRepo{DB: sqlDB}
		app.Highlights = &highlights.PGRepo{DB: sqlDB}
		app.Profiles = &seniority.PGRepo{DB: sqlDB}
	} else {
		app.Reviews = reviews.NewMemoryRepo()
		app.Highlights = highlights.NewMemoryRepo()
		app.Profiles = seniority.NewMemoryRepo()
	}

	app.Settings, err = buildSettings(cfg, sqlDB)
	if err != nil {
		return nil, err
	}

	app.LLM, err = providers.NewFromSettings(ctx, app.Settings, providers.Options{Timeout: cfg.LLMTimeout})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"settings_source": cfg.SettingsSource})
		app.LLM = nil
	case err != nil:
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	buildServices(app)
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultBatchOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildSettings(cfg config.Config, sqlDB *sql.DB) (settings.Source, error) {
	if cfg.SettingsSource != config.SettingsFromDB {
		return settings.Static{Provider: cfg.LLMProvider, Model: cfg.LLMModel, APIKey: cfg.LLMAPIKey}, nil
	}
	if sqlDB == nil {
		if isDevLike(cfg.Env) {
			return settings.NewMemorySource(), nil
		}
		return nil, fmt.Errorf("SETTINGS_SOURCE=db requires DATABASE_URL")
	}
	return &settings.PGSource{DB: sqlDB}, nil
}

func buildServices(app *App) {
	cfg := app.Config
	retry := llm.RetryOptions{MaxRetries: cfg.LLMMaxRetries}

	app.Classifier = classify.NewClassifier(app.LLM, retry)
	app.HighlightService = highlights.NewService(app.Reviews, app.Highlights, app.LLM, highlights.Config{
		MinConfidence: cfg.HighlightMinConfidence,
		Retry:         retry,
	})
	app.GrowthService = growth.NewService(app.Reviews, app.Highlights, app.LLM, growth.Config{
		MinConfidence: cfg.GrowthMinConfidence,
		Retry:         retry,
	})
	app.SeniorityService = seniority.NewService(app.Reviews, app.Profiles, app.LLM, seniority.Config{
		WindowDays: cfg.ProfileWindowDays,
		Retry:      retry,
	})
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
