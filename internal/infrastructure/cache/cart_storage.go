package cache

import (
	"context"
	"momo-storefront/internal/domain"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCartStorage keeps cart snapshots in process memory. Snapshots live
// for ttl after their last write; ttl <= 0 keeps them until deleted.
type memoryCartStorage struct {
	store *gocache.Cache
	ttl   time.Duration
}

func NewMemoryCartStorage(ttl time.Duration) domain.CartStorage {
	expiration := ttl
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return &memoryCartStorage{
		store: gocache.New(expiration, 10*time.Minute),
		ttl:   expiration,
	}
}

func (s *memoryCartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.store.Get(key)
	if !ok {
		return nil, domain.ErrStorageKeyNotFound
	}
	data := v.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memoryCartStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.store.Set(key, buf, s.ttl)
	return nil
}

func (s *memoryCartStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.store.Delete(key)
	return nil
}
