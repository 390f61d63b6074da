// Package cache provides the on-disk cache for store metadata batches.
//
// Querying a large closure from the store daemon is the one slow operation
// in a session, and its result is immutable for a given root set: store
// paths never change once created. Caching the raw batch lets repeat
// invocations skip the query entirely. Entries carry a TTL so that new
// roots (e.g. a rebuilt profile pointing at new paths) age out naturally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores opaque byte payloads under string keys with optional
// expiration.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key builds a cache key by hashing the components, so arbitrary strings
// (store URLs, path lists) cannot collide or escape into file names. The
// full SHA-256 is kept to rule out collisions.
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
