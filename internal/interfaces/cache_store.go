package interfaces

import "time"

// CacheStore is the storage behind the GET response cache. Implementations
// must be safe for concurrent use.
type CacheStore interface {
	// Get returns the cached value for key, or false if absent or expired.
	Get(key string) ([]byte, bool)

	// Set stores value under key for the given TTL.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes key from the store.
	Delete(key string)

	// Close releases any resources held by the store.
	Close() error
}
