package gateway

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dkurbatov/catalogkeeper/internal/gateway/migrations"
)

// gooseUpContext is a seam for testing runMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// openDatabase opens the project's Postgres through the pgx stdlib driver
// and brings the catalog schema up to date. An empty DSN still yields a
// handle (queries fail naturally) but skips migrations.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if dsn != "" {
		if err := runMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
