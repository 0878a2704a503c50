// Package feed composes paginated, optionally relevance-ranked profile feeds.
//
// A feed request fetches the full eligible candidate set from a Source, asks a
// Ranker to order it when a ranking text is available, merges the ranked IDs
// with any unranked leftovers and slices out the requested page. Ranked pages
// are cached under a content fingerprint of the query so that repeated
// requests over an unchanged candidate set skip the oracle.
//
// Basic Usage:
//
//	composer := feed.NewComposer(ranker, cache,
//		feed.WithLogger(logger),
//		feed.WithObserver(metrics),
//		feed.WithKeyPrefix("mentors"),
//	)
//
//	result, err := composer.Feed(ctx, source, feed.Request{
//		Filtered:      true,
//		HasRequester:  true,
//		RequesterText: user.Description,
//		Page:          1,
//		Size:          10,
//	})
//	if errors.Is(err, feed.ErrCandidateSource) {
//		// dependency failure, surface as 503
//	}
//
// Result items are raw candidate IDs. Callers hydrate them into display
// objects on every response, cached or not, so profile edits show up
// immediately.
//
// Degradation:
//
// The ranking oracle and the cache are both optional to a successful
// response. An oracle error or timeout yields source order for that response
// and skips the cache write; a cache error behaves like a miss. Only a
// Source failure is returned to the caller.
package feed
