package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Racej255/CrosslandApocalypse/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies every pending local state migration and returns the
// schema version the file ends up at.
func RunMigrations(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// InitDatabase opens the state file at dsn and brings its schema up to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}

	// A single writer keeps SQLite from returning SQLITE_BUSY between the
	// audit mirror and foreground saves.
	db.SetMaxOpenConns(1)

	if _, err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
