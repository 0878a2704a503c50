// Package oracle provides clients for external relevance-ranking services.
//
// Every client satisfies feed.Ranker. Clients return the oracle's answer
// as-is, including unknown or repeated IDs; the feed composer filters them.
package oracle

import (
	"context"
	"errors"

	"github.com/onnwee/mentorfeed/internal/feed"
)

// Oracle errors.
var (
	ErrUnexpectedStatus  = errors.New("ranking oracle returned unexpected status")
	ErrMalformedResponse = errors.New("ranking oracle returned malformed response")
)

// Ranker is a named feed.Ranker.
type Ranker interface {
	feed.Ranker
	Name() string
}

// Static returns candidates in the order supplied. It stands in for a real
// oracle in tests.
type Static struct{}

// Rank returns the candidate IDs in source order.
func (Static) Rank(_ context.Context, _ string, candidates []feed.Candidate) ([]int64, error) {
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids, nil
}

// Name returns "static".
func (Static) Name() string { return "static" }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
