// Package extraction provides clients for the external NLP entity
// extractor. The extractor is treated as a slow, pure external call: text
// in, raw mentions out, no managed lifecycle.
package extraction

import (
	"context"

	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// Extractor produces raw entity mentions for one article's text.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.RawMention, error)
}

// Config holds configuration for creating an extractor client.
type Config struct {
	Provider string // "openai" or "anthropic"
	Endpoint string // Base URL override; empty uses the provider default
	Model    string
	APIKey   string
}

// systemPrompt instructs the model to return mentions as a bare JSON array.
const systemPrompt = `You are a named-entity extraction service for news articles.
Extract every mention of a person, organization, or place from the article text.
Respond with a JSON array only, no prose. Each element:
{"text": "<the mention exactly as written>",
 "type": "<person|organization|location>",
 "sentence_context": "<the full sentence containing the mention>",
 "position": <character offset of the mention in the article>}
Return [] if the article mentions no entities.`
