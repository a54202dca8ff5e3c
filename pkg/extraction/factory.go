package extraction

import (
	"fmt"

	"go.uber.org/zap"
)

// NewExtractor creates the extractor client selected by cfg.Provider.
func NewExtractor(cfg *Config, logger *zap.Logger) (Extractor, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIExtractor(cfg, logger)
	case "anthropic":
		return NewAnthropicExtractor(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.Provider)
	}
}
