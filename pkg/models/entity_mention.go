package models

import (
	"time"

	"github.com/google/uuid"
)

// RawMention is one entity occurrence produced by the extractor for a
// single article. Ephemeral - never persisted as-is.
type RawMention struct {
	Text            string `json:"text"`
	Type            string `json:"type"`
	SentenceContext string `json:"sentence_context"`
	Position        int    `json:"position"`
}

// EntityMentionRecord ties a canonical entity to one article, with the
// sentiment and framing scored from the mention's surrounding text.
// Append-only: at most one record exists per (article_id,
// canonical_entity_id) pair and records are never mutated.
// Stored in entity_mentions table.
type EntityMentionRecord struct {
	ID                uuid.UUID `json:"id"`
	ArticleID         uuid.UUID `json:"article_id"`
	CanonicalEntityID uuid.UUID `json:"canonical_entity_id"`
	OriginalText      string    `json:"original_text"`
	SentimentScore    float64   `json:"sentiment_score"`
	FramingCategory   string    `json:"framing_category"`
	ContextText       string    `json:"context_text"`
	CreatedAt         time.Time `json:"created_at"`
}

// MentionSummary is the per-mention result returned to callers after an
// article has been processed.
type MentionSummary struct {
	OriginalText    string    `json:"original_text"`
	CanonicalName   string    `json:"canonical_name"`
	CanonicalID     uuid.UUID `json:"canonical_id"`
	Context         string    `json:"context"`
	SentimentScore  float64   `json:"sentiment_score"`
	FramingCategory string    `json:"framing_category"`
}
