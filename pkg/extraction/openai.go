package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// OpenAIExtractor calls an OpenAI-compatible chat endpoint for entity
// extraction. Works against api.openai.com and local OpenAI-compatible
// servers (vLLM, Ollama).
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIExtractor creates an extractor backed by an OpenAI-compatible
// endpoint. An empty Endpoint uses the stock OpenAI base URL.
func NewOpenAIExtractor(cfg *Config, logger *zap.Logger) (*OpenAIExtractor, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("extractor-openai"),
	}, nil
}

var _ Extractor = (*OpenAIExtractor)(nil)

// Extract implements Extractor.
func (e *OpenAIExtractor) Extract(ctx context.Context, text string) ([]models.RawMention, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", apperrors.ErrExtractionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", apperrors.ErrExtractionFailed)
	}

	mentions, err := parseMentions(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("Unparseable extractor response",
			zap.String("model", e.model),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionFailed, err)
	}

	return mentions, nil
}

// parseMentions pulls the JSON array out of a model response and decodes it.
func parseMentions(response string) ([]models.RawMention, error) {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var mentions []models.RawMention
	if err := json.Unmarshal([]byte(jsonStr), &mentions); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	return mentions, nil
}
