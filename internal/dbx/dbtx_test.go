package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var errLogAppend = errors.New("log append failed")

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`DROP TABLE IF EXISTS entries; CREATE TABLE entries (id TEXT PRIMARY KEY, title TEXT);`)
	require.NoError(t, err)
	return db
}

func countEntries(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO entries(id, title) VALUES ('e1', 'Smoke on the ridge')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countEntries(t, db))
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO entries(id, title) VALUES ('e2', 'Transit tunnel')`)
		require.NoError(t, e)
		return errLogAppend
	})
	require.ErrorIs(t, err, errLogAppend)
	require.Equal(t, 0, countEntries(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		require.NotNil(t, recover(), "panic must propagate")
		require.Equal(t, 0, countEntries(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO entries(id, title) VALUES ('e3', 'The water table')`)
		require.NoError(t, e)
		panic("boom")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
}

func TestWithTx_OnConn(t *testing.T) {
	db := setupDB(t)
	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	err = WithTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO entries(id, title) VALUES ('e4', 'Cistern')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countEntries(t, db))
}
