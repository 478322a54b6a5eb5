package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model name
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds a single generation call
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = "You are a friendly assistant that congratulates people on finishing tasks. " +
	"Answer with plain text only, no markdown."

// OpenAIProvider implements CelebrationProvider against any
// OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a provider with defaults.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a provider with logger support.
func NewOpenAIProviderWithLogger(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Celebrate generates a short celebratory message for the completed task.
func (p *OpenAIProvider) Celebrate(ctx context.Context, taskText string) (string, error) {
	userPrompt := fmt.Sprintf(
		"The user just completed this task: «%s».\n"+
			"Write a short (at most 2 sentences) encouraging message in a friendly tone. "+
			"A moderate amount of emoji is fine; avoid stock phrases.",
		taskText,
	)

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "celebrate"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(userPrompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "celebrate"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}
		return "", fmt.Errorf("celebration request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	cleaned := CleanModelOutput(resp.Choices[0].Message.Content)
	if cleaned == "" {
		return "", fmt.Errorf("empty celebration after cleanup")
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "celebrate"),
			zap.String("model", p.model),
			zap.Int("response_length", len(cleaned)),
			zap.Duration("latency", latency),
		)
	}

	return cleaned, nil
}

var _ CelebrationProvider = (*OpenAIProvider)(nil)
