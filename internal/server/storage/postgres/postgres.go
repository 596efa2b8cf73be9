// Package postgres stores entries and the audit log in two Postgres tables,
// entries and entries_log.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/Racej255/CrosslandApocalypse/internal/dbx"
	"github.com/Racej255/CrosslandApocalypse/internal/server/models"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage"
	"github.com/Racej255/CrosslandApocalypse/internal/server/storage/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ storage.Storage = (*Store)(nil)

// New wraps an open database. Migrations are not applied; see Open.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the pgx driver and applies the embedded migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, date, title, content_html, read FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Title, &e.ContentHTML, &e.Read); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (models.Entry, error) {
	var e models.Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, date, title, content_html, read FROM entries WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Date, &e.Title, &e.ContentHTML, &e.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

func (s *Store) InsertEntry(ctx context.Context, e models.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, name, date, title, content_html, read) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Date, e.Title, e.ContentHTML, e.Read)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert %s: %w", e.ID, storage.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) ReplaceEntry(ctx context.Context, e models.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET name = $2, date = $3, title = $4, content_html = $5, read = $6 WHERE id = $1`,
		e.ID, e.Name, e.Date, e.Title, e.ContentHTML, e.Read)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return &common.NotFoundError{ID: e.ID}
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) (models.Entry, error) {
	var e models.Entry
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM entries WHERE id = $1 RETURNING id, name, date, title, content_html, read`, id).
		Scan(&e.ID, &e.Name, &e.Date, &e.Title, &e.ContentHTML, &e.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, &common.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to delete entry: %w", err)
	}
	return e, nil
}

func (s *Store) UpsertEntries(ctx context.Context, entries []models.Entry) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO entries (id, name, date, title, content_html, read)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id)
				DO UPDATE SET
					name = EXCLUDED.name,
					date = EXCLUDED.date,
					title = EXCLUDED.title,
					content_html = EXCLUDED.content_html,
					read = EXCLUDED.read`,
				e.ID, e.Name, e.Date, e.Title, e.ContentHTML, e.Read)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

// AppendLog inserts records in one transaction. Ids already in the table
// are skipped.
func (s *Store) AppendLog(ctx context.Context, records []models.LogRecord) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, r := range records {
			entry, before, after, err := encodeSnapshots(r)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO entries_log (id, timestamp, action, entry, before, after) VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO NOTHING`,
				r.ID, r.Timestamp, r.Action, entry, before, after)
			if err != nil {
				return fmt.Errorf("append %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ListLog(ctx context.Context) ([]models.LogRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, action, entry, before, after FROM entries_log ORDER BY timestamp, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select log: %w", err)
	}
	defer rows.Close()

	result := []models.LogRecord{}
	for rows.Next() {
		var (
			r                    models.LogRecord
			entry, before, after []byte
		)
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Action, &entry, &before, &after); err != nil {
			return nil, err
		}
		if r.Entry, err = decodeSnapshot(entry); err != nil {
			return nil, err
		}
		if r.Before, err = decodeSnapshot(before); err != nil {
			return nil, err
		}
		if r.After, err = decodeSnapshot(after); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeSnapshots(r models.LogRecord) (entry, before, after []byte, err error) {
	if entry, err = encodeSnapshot(r.Entry); err != nil {
		return nil, nil, nil, err
	}
	if before, err = encodeSnapshot(r.Before); err != nil {
		return nil, nil, nil, err
	}
	if after, err = encodeSnapshot(r.After); err != nil {
		return nil, nil, nil, err
	}
	return entry, before, after, nil
}

// encodeSnapshot maps a nil entry to SQL NULL.
func encodeSnapshot(e *models.Entry) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func decodeSnapshot(b []byte) (*models.Entry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var e models.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, &common.ParseError{Source: "entries_log", Err: err}
	}
	return &e, nil
}
