package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/onnwee/mentorfeed/internal/feed"
)

const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the subset of the Bedrock runtime client used here.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type messageRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

const rankSystemPrompt = `You rank profiles by how well they match a request.
Reply with only a JSON array of profile ids, most relevant first. Omit profiles that do not match at all.`

// BedrockRanker ranks candidates with an Anthropic model on Amazon Bedrock.
type BedrockRanker struct {
	client    ModelInvoker
	modelID   string
	maxTokens int
	logger    *slog.Logger
}

// NewBedrockRanker loads the default AWS configuration for region and
// returns a ranker using modelID.
func NewBedrockRanker(ctx context.Context, region, modelID string, logger *slog.Logger) (*BedrockRanker, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewBedrockRankerWithClient(bedrockruntime.NewFromConfig(cfg), modelID, logger), nil
}

// NewBedrockRankerWithClient wraps an existing Bedrock client.
func NewBedrockRankerWithClient(client ModelInvoker, modelID string, logger *slog.Logger) *BedrockRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BedrockRanker{
		client:    client,
		modelID:   modelID,
		maxTokens: 1024,
		logger:    logger,
	}
}

// Name returns "bedrock".
func (r *BedrockRanker) Name() string { return "bedrock" }

// Rank prompts the model with text and the candidate list and parses the
// first JSON array of ids in its reply.
func (r *BedrockRanker) Rank(ctx context.Context, text string, candidates []feed.Candidate) ([]int64, error) {
	if len(candidates) == 0 {
		return []int64{}, nil
	}

	payload, err := json.Marshal(messageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        r.maxTokens,
		Temperature:      0,
		System:           rankSystemPrompt,
		Messages:         []message{{Role: "user", Content: buildPrompt(text, candidates)}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bedrock request: %w", err)
	}

	start := time.Now()
	out, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		r.logger.WarnContext(ctx, "ranking_failed",
			slog.String("model", r.modelID),
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to invoke bedrock model: %w", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	ids, err := parseIDArray(reply.String())
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "ranking_completed",
		slog.String("model", r.modelID),
		slog.Int("result_count", len(ids)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return ids, nil
}

func buildPrompt(text string, candidates []feed.Candidate) string {
	var b strings.Builder
	b.WriteString("Request:\n")
	b.WriteString(text)
	b.WriteString("\n\nProfiles:\n")
	for _, c := range candidates {
		line, _ := json.Marshal(RankCandidate{ID: c.ID, Text: c.Text})
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// parseIDArray extracts the first bracketed JSON array from s.
func parseIDArray(s string) ([]int64, error) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return nil, fmt.Errorf("%w: no id array in reply %q", ErrMalformedResponse, truncate(s, 200))
	}
	end := strings.IndexByte(s[start:], ']')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated id array", ErrMalformedResponse)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(s[start:start+end+1]), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
