package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client implements outbound.TextGenerationClient on top of a Completer.
// Every call waits for the shared rate limiter.
type Client struct {
	completer   Completer
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

var _ outbound.TextGenerationClient = (*Client)(nil)

// NewClient creates a text generation client
func NewClient(completer Completer, cfg config.AIConfig, logger *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Client{
		completer:   completer,
		limiter:     rate.NewLimiter(limit, burst),
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      logger.Named("text-generation"),
	}
}

// ClassifyTopic labels a question as relevant or irrelevant to food.
// Output that names neither yields dietary.TopicUnknown.
func (c *Client) ClassifyTopic(ctx context.Context, question string) (dietary.TopicClassification, error) {
	out, err := c.chat(ctx, "classify topic", topicSystemPrompt, question, 0, true)
	if err != nil {
		return dietary.TopicUnknown, err
	}
	return parseTopic(out), nil
}

// ClassifyAllergy splits a dish's ingredients into main and side ingredients
func (c *Client) ClassifyAllergy(ctx context.Context, req outbound.AllergyClassificationRequest) (*outbound.AllergyClassification, error) {
	out, err := c.chat(ctx, "classify allergy", allergySystemPrompt, allergyPrompt(req), 0, true)
	if err != nil {
		return nil, err
	}

	raw := ExtractJSON(out)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in output", dietary.ErrMalformedResponse)
	}

	var result outbound.AllergyClassification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Debug("Unparseable allergy classification",
			zap.String("dish", req.DishName),
			zap.String("output", truncate(out, 300)))
		return nil, fmt.Errorf("%w: %v", dietary.ErrMalformedResponse, err)
	}
	return &result, nil
}

// Rerank returns the raw model output for a rerank prompt
func (c *Client) Rerank(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "rerank", rerankSystemPrompt, prompt, 0, false)
}

// ComposeNaturalResponse returns a conversational recommendation text
func (c *Client) ComposeNaturalResponse(ctx context.Context, prompt string) (string, error) {
	out, err := c.chat(ctx, "compose response", naturalSystemPrompt, prompt, c.temperature, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HealthCheck checks the underlying provider
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.completer.HealthCheck(ctx)
}

func (c *Client) chat(ctx context.Context, op, system, prompt string, temperature float64, jsonMode bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: rate limit wait: %w", op, err)
	}

	out, err := c.completer.Chat(ctx, system, prompt, c.maxTokens, temperature, jsonMode)
	if err != nil {
		c.logger.Warn("Text generation failed",
			zap.String("operation", op),
			zap.String("provider", c.completer.Name()),
			zap.Error(err))
		return "", apperrors.NewExternalServiceError(c.completer.Name(), err).WithMetadata("operation", op)
	}
	return out, nil
}

func parseTopic(out string) dietary.TopicClassification {
	if raw := ExtractJSON(out); raw != "" {
		var parsed struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			out = parsed.Topic
		}
	}

	answer := strings.ToLower(out)
	switch {
	case strings.Contains(answer, "irrelevant"):
		return dietary.TopicIrrelevant
	case strings.Contains(answer, "relevant"):
		return dietary.TopicRelevant
	default:
		return dietary.TopicUnknown
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
