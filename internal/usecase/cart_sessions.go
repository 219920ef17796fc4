package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/cache"
)

// CartSessions maps anonymous session ids to their CartStore. Stores stay
// cached while the session is active; an idle session is dropped from memory
// and rehydrated from storage on its next request. A memory-only store holds
// the only copy of its cart, so it is pinned until persistence resumes.
type CartSessions struct {
	cache   cache.CacheService
	storage domain.CartStorage
	keyName string
	maxQty  int
	idleTTL time.Duration
	mu      sync.Mutex
}

func NewCartSessions(c cache.CacheService, storage domain.CartStorage, keyName string, maxQty int, idleTTL time.Duration) *CartSessions {
	return &CartSessions{
		cache:   c,
		storage: storage,
		keyName: keyName,
		maxQty:  maxQty,
		idleTTL: idleTTL,
	}
}

// Key is the storage key for a session's cart.
func (cs *CartSessions) Key(sessionID string) string {
	return cs.keyName + ":" + sessionID
}

func (cs *CartSessions) cacheKey(sessionID string) string {
	return "cart:" + sessionID
}

// Get returns the session's store, loading it from storage on a miss.
func (cs *CartSessions) Get(ctx context.Context, sessionID string) (*CartStore, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.NewValidationError("session", "is required")
	}

	ck := cs.cacheKey(sessionID)
	if s, ok := cs.lookup(ck); ok {
		return s, nil
	}

	loaded := LoadCartStore(ctx, cs.storage, cs.Key(sessionID), cs.maxQty)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if v, ok := cs.cache.Get(ck); ok {
		return v.(*CartStore), nil
	}
	loaded.onDegrade = func(degraded bool) {
		cs.pin(ck, loaded, degraded)
	}
	cs.cache.Set(ck, loaded, cs.ttl(loaded.Degraded()))
	return loaded, nil
}

func (cs *CartSessions) lookup(ck string) (*CartStore, bool) {
	v, ok := cs.cache.Get(ck)
	if !ok {
		return nil, false
	}
	s := v.(*CartStore)
	cs.cache.Touch(ck, cs.ttl(s.Degraded()))
	return s, true
}

func (cs *CartSessions) ttl(degraded bool) time.Duration {
	if degraded {
		return cache.NoExpiration
	}
	return cs.idleTTL
}

// pin re-arms the entry's expiry when the store changes mode. It is called
// with the store lock held, so it must not call back into the store.
func (cs *CartSessions) pin(ck string, s *CartStore, degraded bool) {
	if v, ok := cs.cache.Get(ck); !ok || v.(*CartStore) != s {
		return
	}
	cs.cache.Set(ck, s, cs.ttl(degraded))
}
