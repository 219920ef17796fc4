package objectstore

import (
	"context"
	"errors"
	"momo-storefront/internal/domain"
	"momo-storefront/pkg/storage"
)

// ObjectStore is the subset of storage.R2Storage used for cart snapshots.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
}

type cartStorage struct {
	store ObjectStore
}

// NewCartStorage keeps each cart snapshot as "<key>.json" in the bucket.
func NewCartStorage(store ObjectStore) domain.CartStorage {
	return &cartStorage{store: store}
}

func objectName(key string) string {
	return "carts/" + key + ".json"
}

func (r *cartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.store.GetObject(ctx, objectName(key))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, domain.ErrStorageKeyNotFound
	}
	return data, err
}

func (r *cartStorage) Save(ctx context.Context, key string, data []byte) error {
	return r.store.PutObject(ctx, objectName(key), data, "application/json")
}

func (r *cartStorage) Delete(ctx context.Context, key string) error {
	return r.store.DeleteObject(ctx, objectName(key))
}
