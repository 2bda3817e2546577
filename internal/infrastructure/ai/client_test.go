package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Name() string {
	return "mock"
}

func (m *MockCompleter) Chat(ctx context.Context, system, prompt string, maxTokens int, temperature float64, jsonMode bool) (string, error) {
	args := m.Called(ctx, system, prompt, maxTokens, temperature, jsonMode)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func createTestClient(t *testing.T) (*Client, *MockCompleter) {
	completer := new(MockCompleter)
	client := NewClient(completer, config.AIConfig{MaxTokens: 256, Temperature: 0.4}, zaptest.NewLogger(t))
	return client, completer
}

func TestClassifyTopic(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   dietary.TopicClassification
	}{
		{"json relevant", `{"topic": "relevant"}`, dietary.TopicRelevant},
		{"json irrelevant in fence", "```json\n{\"topic\": \"Irrelevant\"}\n```", dietary.TopicIrrelevant},
		{"plain word", "Relevant.", dietary.TopicRelevant},
		{"undecided", "I am not sure", dietary.TopicUnknown},
		{"empty topic", `{"topic": ""}`, dietary.TopicUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, completer := createTestClient(t)
			completer.On("Chat", mock.Anything, topicSystemPrompt, "what should I eat", 256, 0.0, true).Return(tt.output, nil)

			got, err := client.ClassifyTopic(context.Background(), "what should I eat")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyTopic_ProviderFailure(t *testing.T) {
	client, completer := createTestClient(t)
	refused := errors.New("connection refused")
	completer.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", refused)

	got, err := client.ClassifyTopic(context.Background(), "dinner ideas")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeExternalServiceError, appErr.Code)
	assert.Contains(t, appErr.Details, "mock")
	assert.Equal(t, "classify topic", appErr.Metadata["operation"])
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, dietary.TopicUnknown, got)
}

func TestClassifyAllergy(t *testing.T) {
	// Arrange
	client, completer := createTestClient(t)
	req := outbound.AllergyClassificationRequest{
		DishName:      "Kung Pao Chicken",
		Ingredients:   []string{"chicken", "peanut", "chili"},
		UserAllergies: []string{"peanut"},
	}
	output := "Here you go:\n```json\n{\n  \"is_safe\": false,\n  \"main_ingredients\": [\"chicken\", \"peanut\"], // core\n  \"side_ingredients\": [\"chili\"],\n}\n```"
	completer.On("Chat", mock.Anything, allergySystemPrompt, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "Dish: Kung Pao Chicken") && assert.Contains(t, p, "User allergies: peanut")
	}), 256, 0.0, true).Return(output, nil)

	// Act
	got, err := client.ClassifyAllergy(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.False(t, got.IsSafe)
	assert.Equal(t, []string{"chicken", "peanut"}, got.MainIngredients)
	assert.Equal(t, []string{"chili"}, got.SideIngredients)
}

func TestClassifyAllergy_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"no json", "The dish contains peanuts."},
		{"broken json", `{"main_ingredients": [chicken]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, completer := createTestClient(t)
			completer.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.output, nil)

			got, err := client.ClassifyAllergy(context.Background(), outbound.AllergyClassificationRequest{DishName: "x"})

			assert.ErrorIs(t, err, dietary.ErrMalformedResponse)
			assert.Nil(t, got)
		})
	}
}

func TestRerankAndCompose(t *testing.T) {
	client, completer := createTestClient(t)
	completer.On("Chat", mock.Anything, rerankSystemPrompt, "rank these", 256, 0.0, false).Return("1. Tofu Soup", nil)
	completer.On("Chat", mock.Anything, naturalSystemPrompt, "describe these", 256, 0.4, false).Return("  Enjoy the soup!\n", nil)

	ranked, err := client.Rerank(context.Background(), "rank these")
	require.NoError(t, err)
	assert.Equal(t, "1. Tofu Soup", ranked)

	text, err := client.ComposeNaturalResponse(context.Background(), "describe these")
	require.NoError(t, err)
	assert.Equal(t, "Enjoy the soup!", text)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	completer := new(MockCompleter)
	client := NewClient(completer, config.AIConfig{RequestsPerMinute: 1, Burst: 1}, zaptest.NewLogger(t))
	completer.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	_, err := client.Rerank(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Rerank(ctx, "second")

	assert.ErrorContains(t, err, "rate limit wait")
	completer.AssertNumberOfCalls(t, "Chat", 1)
}

func TestNewCompleter(t *testing.T) {
	logger := zaptest.NewLogger(t)

	c, err := NewCompleter(config.AIConfig{Provider: "ollama"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())

	_, err = NewCompleter(config.AIConfig{Provider: "openai"}, logger)
	assert.Error(t, err)

	c, err = NewCompleter(config.AIConfig{Provider: "openai", OpenAIKey: "sk-test"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	_, err = NewCompleter(config.AIConfig{Provider: "bard"}, logger)
	assert.Error(t, err)
}

func TestHealthChecker(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("HealthCheck", mock.Anything).Return(nil).Once()
	completer.On("HealthCheck", mock.Anything).Return(errors.New("down")).Once()
	checker := NewHealthChecker(completer, zaptest.NewLogger(t))

	assert.Equal(t, StatusHealthy, checker.CheckHealth(context.Background()).Status)

	status := checker.CheckHealth(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Contains(t, status.Details, "down")
	assert.Equal(t, "mock", status.Provider)
}
