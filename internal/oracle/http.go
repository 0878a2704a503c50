package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/mentorfeed/internal/feed"
)

// RankRequest is the request payload for the rank endpoint.
type RankRequest struct {
	Query      string          `json:"query"`
	Candidates []RankCandidate `json:"candidates"`
}

// RankCandidate is one candidate descriptor sent to the oracle.
type RankCandidate struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// RankResponse is the response from the rank endpoint, most relevant first.
type RankResponse struct {
	IDs []int64 `json:"ids"`
}

// HTTPRanker calls a JSON ranking service at POST {BaseURL}/v1/rank.
type HTTPRanker struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewHTTPRanker constructs an HTTPRanker. If client is nil, a traced
// http.Client with the given timeout is created.
func NewHTTPRanker(baseURL string, timeout time.Duration, logger *slog.Logger, client *http.Client) *HTTPRanker {
	if client == nil {
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPRanker{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		logger:  logger,
	}
}

// Name returns "http".
func (r *HTTPRanker) Name() string { return "http" }

// Rank asks the service to order candidates by relevance to text.
func (r *HTTPRanker) Rank(ctx context.Context, text string, candidates []feed.Candidate) ([]int64, error) {
	if len(candidates) == 0 {
		return []int64{}, nil
	}

	start := time.Now()
	r.logger.DebugContext(ctx, "ranking_started",
		slog.String("query", truncate(text, 100)),
		slog.Int("candidate_count", len(candidates)))

	body := RankRequest{Query: text, Candidates: make([]RankCandidate, len(candidates))}
	for i, c := range candidates {
		body.Candidates[i] = RankCandidate{ID: c.ID, Text: c.Text}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/v1/rank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "ranking_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call rank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.WarnContext(ctx, "ranking_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncate(string(msg), 500)),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.IDs == nil {
		out.IDs = []int64{}
	}

	r.logger.DebugContext(ctx, "ranking_completed",
		slog.Int("result_count", len(out.IDs)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return out.IDs, nil
}
