package postgres

import (
	"context"
	"errors"
	"testing"

	"momo-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	payload []byte
	err     error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

type stubDB struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *stubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.execFunc(ctx, sql, args...)
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.queryRowFunc(ctx, sql, args...)
}

func TestCartStorage_LoadMissingKey(t *testing.T) {
	db := &stubDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		assert.Equal(t, loadSnapshotSQL, sql)
		assert.Equal(t, []any{"quoteItems:s1"}, args)
		return stubRow{err: pgx.ErrNoRows}
	}}

	_, err := NewCartStorage(db).Load(context.Background(), "quoteItems:s1")
	assert.ErrorIs(t, err, domain.ErrStorageKeyNotFound)
}

func TestCartStorage_LoadPayload(t *testing.T) {
	db := &stubDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		return stubRow{payload: []byte(`{"items":[]}`)}
	}}

	got, err := NewCartStorage(db).Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))
}

func TestCartStorage_LoadPropagatesDriverError(t *testing.T) {
	boom := errors.New("connection reset")
	db := &stubDB{queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
		return stubRow{err: boom}
	}}

	_, err := NewCartStorage(db).Load(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
}

func TestCartStorage_SaveAndDelete(t *testing.T) {
	var calls []string
	db := &stubDB{execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		calls = append(calls, sql)
		assert.Equal(t, "k", args[0])
		return pgconn.NewCommandTag("OK"), nil
	}}
	s := NewCartStorage(db)

	require.NoError(t, s.Save(context.Background(), "k", []byte(`{}`)))
	require.NoError(t, s.Delete(context.Background(), "k"))
	assert.Equal(t, []string{upsertSnapshotSQL, deleteSnapshotSQL}, calls)
}

func TestPruneSnapshots(t *testing.T) {
	db := &stubDB{execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		assert.Equal(t, pruneSnapshotsSQL, sql)
		assert.Equal(t, 3600.0, args[0])
		return pgconn.NewCommandTag("DELETE 4"), nil
	}}

	n, err := PruneSnapshots(context.Background(), db, 3600)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestEnsureSchema_WrapsError(t *testing.T) {
	db := &stubDB{execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}}

	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create cart_snapshots")
}
