package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityProfile is a derived per-entity aggregate rebuilt periodically
// from mention history. Not authoritative - it can always be recomputed.
// Stored in entity_profiles table, one row per entity (upserted).
type EntityProfile struct {
	CanonicalEntityID uuid.UUID         `json:"canonical_entity_id"`
	SummaryContent    string            `json:"summary_content"`
	MentionCount      int               `json:"mention_count"`
	AverageSentiment  float64           `json:"average_sentiment"`
	DominantFraming   string            `json:"dominant_framing"`
	FirstSeenAt       *time.Time        `json:"first_seen_at,omitempty"`
	LastSeenAt        *time.Time        `json:"last_seen_at,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
