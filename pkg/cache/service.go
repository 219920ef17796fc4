package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	// Touch resets the expiration of an existing item.
	// Returns false when the key is absent.
	Touch(key string, duration time.Duration) bool

	// Delete removes a value from the cache
	Delete(key string)

	// Flush removes all items
	Flush()
}

// DefaultExpiration asks the implementation to use its configured TTL.
const DefaultExpiration time.Duration = 0

// NoExpiration keeps an item until it is deleted.
const NoExpiration time.Duration = -1
