package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity type constants. Mention extractors emit free-form labels; the
// resolver normalizes them to one of these before lookup.
const (
	EntityTypePerson       = "person"
	EntityTypeOrganization = "organization"
	EntityTypeLocation     = "location"
)

// CanonicalEntity is the deduplicated, authoritative record for one
// real-world person, organization or place. Uniqueness across name
// variants ("Jon Doe" vs "John Doe") is enforced by the resolver's
// similarity matching, not by the schema; only the exact
// (lower(name), entity_type) pair carries a unique index, which backs
// concurrent create-race detection.
// Stored in canonical_entities table.
type CanonicalEntity struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	EntityType  string            `json:"entity_type"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
