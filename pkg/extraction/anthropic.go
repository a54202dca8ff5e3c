package extraction

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// AnthropicExtractor calls the Anthropic Messages API for entity extraction.
type AnthropicExtractor struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicExtractor creates an extractor backed by the Anthropic
// API. An empty Endpoint uses the stock Anthropic base URL.
func NewAnthropicExtractor(cfg *Config, logger *zap.Logger) (*AnthropicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	return &AnthropicExtractor{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
		logger: logger.Named("extractor-anthropic"),
	}, nil
}

var _ Extractor = (*AnthropicExtractor)(nil)

// Extract implements Extractor.
func (e *AnthropicExtractor) Extract(ctx context.Context, text string) ([]models.RawMention, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := e.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.model),
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create messages: %v", apperrors.ErrExtractionFailed, err)
	}

	mentions, err := parseMentions(resp.GetFirstContentText())
	if err != nil {
		e.logger.Warn("Unparseable extractor response",
			zap.String("model", e.model),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExtractionFailed, err)
	}

	return mentions, nil
}
