package postgres

import (
	"context"
	"errors"
	"fmt"
	"momo-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	storage_key TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	loadSnapshotSQL   = `SELECT payload FROM cart_snapshots WHERE storage_key = $1`
	upsertSnapshotSQL = `
INSERT INTO cart_snapshots (storage_key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	deleteSnapshotSQL = `DELETE FROM cart_snapshots WHERE storage_key = $1`
	pruneSnapshotsSQL = `DELETE FROM cart_snapshots WHERE updated_at < now() - make_interval(secs => $1)`
)

// DBTX is the subset of pgxpool.Pool used here.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cartStorage struct {
	db DBTX
}

// NewCartStorage stores one JSONB snapshot per storage key.
func NewCartStorage(db DBTX) domain.CartStorage {
	return &cartStorage{db: db}
}

// EnsureSchema creates the snapshot table if needed.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create cart_snapshots: %w", err)
	}
	return nil
}

func (r *cartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, loadSnapshotSQL, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStorageKeyNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *cartStorage) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.Exec(ctx, upsertSnapshotSQL, key, data)
	return err
}

func (r *cartStorage) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, deleteSnapshotSQL, key)
	return err
}

// PruneSnapshots deletes snapshots idle for longer than maxIdleSeconds and
// returns how many were removed.
func PruneSnapshots(ctx context.Context, db DBTX, maxIdleSeconds float64) (int64, error) {
	tag, err := db.Exec(ctx, pruneSnapshotsSQL, maxIdleSeconds)
	if err != nil {
		return 0, fmt.Errorf("prune cart_snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
