// Command insights regenerates review insights and classifies single comments.
//
//	insights migrate
//	insights highlights
//	insights growth
//	insights seniority
//	insights classify --body "nit: rename this"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"review-insights/internal/batch"
	"review-insights/internal/bootstrap"
	"review-insights/internal/classify"
	"review-insights/internal/shared/config"
	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/storage/db"
	"review-insights/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd(config.Load()).ExecuteContext(ctx)
	telemetry.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(cfg config.Config) *cobra.Command {
	var stopMetrics func()

	cmd := &cobra.Command{
		Use:           "insights",
		Short:         "Derive reviewer insights from classified code review comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := telemetry.Configure(cfg.LogLevel); err != nil {
				return err
			}
			stopMetrics = serveMetrics(cfg.MetricsAddr)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if stopMetrics != nil {
				stopMetrics()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address while the command runs")

	cmd.AddCommand(
		migrateCmd(&cfg),
		generateCmd(&cfg, "highlights", "Regenerate highlights for every team member", func(app *bootstrap.App) generator {
			return app.HighlightService
		}),
		generateCmd(&cfg, "growth", "Regenerate growth opportunities for every team member", func(app *bootstrap.App) generator {
			return app.GrowthService
		}),
		generateCmd(&cfg, "seniority", "Recompute seniority profiles for every team member", func(app *bootstrap.App) generator {
			return app.SeniorityService
		}),
		classifyCmd(&cfg),
	)
	return cmd
}

type generator interface {
	Generate(ctx context.Context) (batch.Result, error)
}

func generateCmd(cfg *config.Config, use, short string, pick func(*bootstrap.App) generator) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.Build(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := pick(app).Generate(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Status == batch.StatusError {
				return fmt.Errorf("%s: every member failed (%d errors)", use, result.Errors)
			}
			return nil
		},
	}
}

func classifyCmd(cfg *config.Config) *cobra.Command {
	var in classify.Input
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one review comment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Body == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				in.Body = string(raw)
			}
			app, err := bootstrap.Build(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Classifier.Classify(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&in.Body, "body", "", "Comment body, or - to read stdin")
	cmd.Flags().StringVar(&in.FilePath, "file", "", "File the comment is attached to")
	cmd.Flags().StringVar(&in.PRTitle, "pr-title", "", "Pull request title")
	cmd.Flags().StringVar(&in.DiffSnippet, "diff", "", "Diff hunk the comment refers to")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()

			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			version, err := db.MigrationsVersion()
			if err != nil {
				return err
			}
			telemetry.Info("migrate.done", map[string]any{"version": version})
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// serveMetrics exposes /metrics on addr until the returned func is called.
func serveMetrics(addr string) func() {
	if strings.TrimSpace(addr) == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("metrics.serve_failed", map[string]any{"addr": addr, "error": err.Error()})
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
