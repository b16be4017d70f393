package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"

	"review-insights/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, "migrations")
}

// MigrationsVersion returns the newest migration version shipped with the binary.
func MigrationsVersion() (int64, error) {
	goose.SetBaseFS(migrationFiles)
	migrations, err := goose.CollectMigrations("migrations", 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, errors.New("no migrations embedded")
	}
	last, err := migrations.Last()
	if err != nil {
		return 0, err
	}
	return last.Version, nil
}

// gooseLogger routes goose output through the process logger.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	telemetry.Logger().Sugar().Fatalf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	telemetry.Logger().Sugar().Infof(format, v...)
}
