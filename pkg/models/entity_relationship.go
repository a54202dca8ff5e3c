package models

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipTypeCoOccurrence is the only relationship type the engine
// derives today: two entities mentioned in the same article.
const RelationshipTypeCoOccurrence = "co_occurrence"

// RelationshipEdge is a derived edge between two canonical entities.
// Never persisted - computed on demand from mention history.
type RelationshipEdge struct {
	SourceEntityID    uuid.UUID `json:"source_entity_id"`
	TargetEntityID    uuid.UUID `json:"target_entity_id"`
	TargetName        string    `json:"target_name"`
	TargetType        string    `json:"target_type"`
	RelationshipType  string    `json:"relationship_type"`
	CoOccurrenceCount int       `json:"co_occurrence_count"`
	Confidence        float64   `json:"confidence"`
}

// TimelineEntry is one article appearance of an entity, ordered by
// publication date in timeline queries.
type TimelineEntry struct {
	ArticleID      uuid.UUID `json:"article_id"`
	Title          string    `json:"title"`
	Context        string    `json:"context"`
	SentimentScore float64   `json:"sentiment_score"`
	Date           time.Time `json:"date"`
}

// SentimentBucket is one time bucket of a sentiment trend. Buckets with
// no mentions carry MentionCount 0 and AverageSentiment 0.
type SentimentBucket struct {
	Date             time.Time `json:"date"`
	AverageSentiment float64   `json:"average_sentiment"`
	MentionCount     int       `json:"mention_count"`
}
