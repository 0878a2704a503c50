package rankcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/onnwee/mentorfeed/internal/feed"
)

// ErrInvalidEntry is returned when a stored entry cannot be decoded.
var ErrInvalidEntry = errors.New("invalid rank cache entry")

// ErrorRecorder counts store and codec failures.
type ErrorRecorder interface {
	CacheError()
}

// Cache adapts a Store to feed.ResultCache. Results are encoded as CBOR.
// Store and codec failures are logged and reported to the recorder, never
// returned: a failed Get is a miss and a failed Set is a no-op.
type Cache struct {
	store    Store
	logger   *slog.Logger
	recorder ErrorRecorder
}

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{ExtraReturnErrors: cbor.ExtraDecErrorUnknownField}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// New creates a Cache over store. recorder may be nil.
func New(store Store, logger *slog.Logger, recorder ErrorRecorder) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger, recorder: recorder}
}

// Get returns the cached result for key. The second value is false on a
// miss or any failure.
func (c *Cache) Get(ctx context.Context, key string) (feed.Result, bool) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return feed.Result{}, false
	}
	if err != nil {
		c.fail(ctx, "rank cache get failed", key, err)
		return feed.Result{}, false
	}

	result, err := Decode(data)
	if err != nil {
		c.fail(ctx, "rank cache entry undecodable", key, err)
		return feed.Result{}, false
	}
	return result, true
}

// Set stores result under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, result feed.Result, ttl time.Duration) {
	data, err := Encode(result)
	if err != nil {
		c.fail(ctx, "rank cache encode failed", key, err)
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.fail(ctx, "rank cache set failed", key, err)
	}
}

func (c *Cache) fail(ctx context.Context, msg, key string, err error) {
	c.logger.WarnContext(ctx, msg,
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	if c.recorder != nil {
		c.recorder.CacheError()
	}
}

// Encode serializes a result in the cache's canonical CBOR form.
func Encode(result feed.Result) ([]byte, error) {
	return encMode.Marshal(result)
}

// Decode parses a cached result. Unknown fields are rejected.
func Decode(data []byte) (feed.Result, error) {
	var result feed.Result
	if err := decMode.NewDecoder(bytes.NewReader(data)).Decode(&result); err != nil {
		return feed.Result{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if result.Items == nil {
		result.Items = []int64{}
	}
	return result, nil
}
