package oracle

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/fingerprint"
)

// Coalescing collapses concurrent identical Rank calls into one upstream
// call. Calls are identical when text and candidate set (order-insensitive)
// match. Each caller receives its own copy of the result.
//
// The shared call runs under the first caller's context; if that caller is
// cancelled, every waiter sees the cancellation error and falls back.
type Coalescing struct {
	next  Ranker
	group singleflight.Group
}

// NewCoalescing wraps next.
func NewCoalescing(next Ranker) *Coalescing {
	return &Coalescing{next: next}
}

// Name returns the wrapped ranker's name.
func (c *Coalescing) Name() string { return c.next.Name() }

// Rank forwards to the wrapped ranker, sharing in-flight calls.
func (c *Coalescing) Rank(ctx context.Context, text string, candidates []feed.Candidate) ([]int64, error) {
	items := make([]fingerprint.Item, len(candidates))
	for i, cand := range candidates {
		items[i] = fingerprint.Item{ID: cand.ID, Text: cand.Text}
	}
	key := fingerprint.Compute(fingerprint.Query{RankingText: text, Items: items})

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.next.Rank(ctx, text, candidates)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]int64)), nil
}
