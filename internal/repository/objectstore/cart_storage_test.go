package objectstore

import (
	"context"
	"testing"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObjectStore struct {
	objects     map[string][]byte
	contentType string
}

func (s *stubObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *stubObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	s.contentType = contentType
	return nil
}

func (s *stubObjectStore) DeleteObject(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func TestCartStorage_ObjectLayout(t *testing.T) {
	ctx := context.Background()
	store := &stubObjectStore{objects: map[string][]byte{}}
	s := NewCartStorage(store)

	_, err := s.Load(ctx, "quoteItems:s1")
	require.ErrorIs(t, err, domain.ErrStorageKeyNotFound)

	require.NoError(t, s.Save(ctx, "quoteItems:s1", []byte(`{"items":[]}`)))
	assert.Contains(t, store.objects, "carts/quoteItems:s1.json")
	assert.Equal(t, "application/json", store.contentType)

	got, err := s.Load(ctx, "quoteItems:s1")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))

	require.NoError(t, s.Delete(ctx, "quoteItems:s1"))
	assert.Empty(t, store.objects)
}
