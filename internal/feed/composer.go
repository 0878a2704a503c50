package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/mentorfeed/internal/fingerprint"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

// Ranker orders candidates by relevance to text, most relevant first.
// It may return a subset of the input IDs, and may include IDs that are not
// in the input; the Composer filters both cases.
type Ranker interface {
	Rank(ctx context.Context, text string, candidates []Candidate) ([]int64, error)
}

// ResultCache stores ranked pages by key. Get reports false on a miss and
// on any store failure; Set never fails from the caller's point of view.
type ResultCache interface {
	Get(ctx context.Context, key string) (Result, bool)
	Set(ctx context.Context, key string, result Result, ttl time.Duration)
}

// Source supplies the eligible candidate set for a feed. filtered selects
// the requester-specific filter; the returned int is the source's total.
type Source interface {
	Fetch(ctx context.Context, filtered bool, page, size int) ([]Candidate, int, error)
}

// Request is the inbound feed request as seen by the HTTP layer.
type Request struct {
	Filtered      bool
	HasRequester  bool
	RequesterText string
	Prompt        string
	Page          int
	Size          int
}

// RankingText picks the text used for ranking: the trimmed prompt if set,
// else the requester's trimmed profile text, else none.
func (r Request) RankingText() string {
	if p := strings.TrimSpace(r.Prompt); p != "" {
		return p
	}
	if !r.HasRequester {
		return ""
	}
	return strings.TrimSpace(r.RequesterText)
}

// Composer orchestrates ranking, caching and pagination. It holds no
// per-request state and is safe for concurrent use.
type Composer struct {
	ranker        Ranker
	cache         ResultCache
	ttl           time.Duration
	oracleTimeout time.Duration
	keyPrefix     string
	logger        *slog.Logger
	observer      Observer
}

// Option configures a Composer.
type Option func(*Composer)

// WithTTL sets the lifetime of cached ranked pages.
func WithTTL(ttl time.Duration) Option {
	return func(c *Composer) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithOracleTimeout bounds each ranking call.
func WithOracleTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.oracleTimeout = d
		}
	}
}

// WithKeyPrefix scopes cache keys, typically by feed kind.
func WithKeyPrefix(prefix string) Option {
	return func(c *Composer) { c.keyPrefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the observer for cache and oracle events.
func WithObserver(o Observer) Option {
	return func(c *Composer) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewComposer creates a Composer. A nil ranker or cache disables ranking or
// caching respectively.
func NewComposer(ranker Ranker, cache ResultCache, opts ...Option) *Composer {
	c := &Composer{
		ranker:        ranker,
		cache:         cache,
		ttl:           DefaultCacheTTL,
		oracleTimeout: DefaultOracleTimeout,
		logger:        slog.Default(),
		observer:      NopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Feed fetches the candidate set from src and composes the requested page.
// If req.Filtered is set without a requester, the fetch is unfiltered.
// Only a Source failure is returned, wrapped in ErrCandidateSource.
func (c *Composer) Feed(ctx context.Context, src Source, req Request) (Result, error) {
	page, size := Normalize(req.Page, req.Size)
	filtered := req.Filtered && req.HasRequester

	fetchCtx, endSpan := tracing.StartSpan(ctx, "feed.fetch_candidates")
	candidates, _, err := src.Fetch(fetchCtx, filtered, 1, CandidateFetchSize)
	endSpan(err)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCandidateSource, err)
	}

	return c.Compose(ctx, Query{
		RankingText: req.RankingText(),
		Candidates:  candidates,
		Filtered:    filtered,
		Page:        page,
		Size:        size,
	})
}

// Compose returns one page over q.Candidates. With a ranking text, the page
// is served from cache when possible, otherwise ranked, merged and cached.
// Without one, the cache and ranker are never touched. The returned error is
// non-nil only when ctx is already done.
func (c *Composer) Compose(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	page, size := Normalize(q.Page, q.Size)
	total := len(q.Candidates)

	if strings.TrimSpace(q.RankingText) == "" || c.ranker == nil {
		c.observer.Composed(false)
		return Paginate(SourceOrder(q.Candidates), total, page, size), nil
	}

	ctx, endSpan := tracing.StartSpan(ctx, "feed.compose_ranked",
		attribute.Int("feed.candidates", total),
		attribute.Int("feed.page", page),
	)
	defer endSpan(nil)

	key := fingerprint.Key(c.keyPrefix, fingerprint.Compute(fingerprintQuery(q, page, size)))

	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			c.observer.CacheHit()
			c.observer.Composed(true)
			tracing.SetAttributes(ctx, attribute.Bool("feed.cache_hit", true))
			c.logger.DebugContext(ctx, "feed cache hit", slog.String("key", key))
			return cached, nil
		}
		c.observer.CacheMiss()
	}

	ranked, err := c.rank(ctx, q)
	if err != nil {
		c.observer.OracleFailure()
		c.observer.Composed(false)
		tracing.AddEvent(ctx, "feed.oracle_fallback")
		c.logger.WarnContext(ctx, "ranking failed, using source order",
			slog.Int("candidates", total),
			slog.String("error", err.Error()),
		)
		return Paginate(SourceOrder(q.Candidates), total, page, size), nil
	}

	result := Paginate(Merge(ranked, q.Candidates), total, page, size)
	if c.cache != nil {
		c.cache.Set(ctx, key, result, c.ttl)
	}
	c.observer.Composed(true)
	return result, nil
}

func (c *Composer) rank(ctx context.Context, q Query) ([]int64, error) {
	if len(q.Candidates) == 0 {
		return nil, nil
	}

	rankCtx, cancel := context.WithTimeout(ctx, c.oracleTimeout)
	defer cancel()

	start := time.Now()
	ids, err := c.ranker.Rank(rankCtx, q.RankingText, q.Candidates)
	c.observer.OracleDuration(time.Since(start))
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func fingerprintQuery(q Query, page, size int) fingerprint.Query {
	items := make([]fingerprint.Item, len(q.Candidates))
	for i, cand := range q.Candidates {
		items[i] = fingerprint.Item{ID: cand.ID, Text: cand.Text}
	}
	return fingerprint.Query{
		RankingText: q.RankingText,
		Items:       items,
		Filtered:    q.Filtered,
		Page:        page,
		Size:        size,
	}
}
