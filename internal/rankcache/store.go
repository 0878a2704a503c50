// Package rankcache stores composed feed pages keyed by query fingerprint.
package rankcache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when the key is absent or expired.
var ErrNotFound = errors.New("rank cache entry not found")

// Store is a byte-oriented key/value store with per-entry expiry.
// Writes to the same key are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
