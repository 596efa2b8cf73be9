package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// WithDB returns a copy bound to db, typically a transaction.
func (r *SQLiteRepository) WithDB(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: r.now}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get local_state[%s]: %w", key, err)
	}
	if !value.Valid {
		return nil, nil
	}
	return json.RawMessage(value.String), nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set local_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete local_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM local_state WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list local_state: %w", err)
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan local_state row: %w", err)
		}
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if value.Valid {
			result[key] = json.RawMessage(value.String)
		} else {
			result[key] = nil
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate local_state rows: %w", err)
	}
	return result, nil
}
