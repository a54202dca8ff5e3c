package models

import (
	"time"

	"github.com/google/uuid"
)

// Article status values relevant to entity tracking. Ingestion
// collaborators own the rest of the lifecycle.
const (
	ArticleStatusScraped       = "scraped"
	ArticleStatusEntityTracked = "entity_tracked"
)

// Article is the engine's read view of an ingested article. Rows are
// created by the feed/scraping collaborators; the tracking engine only
// reads them and advances status after successful processing.
type Article struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url,omitempty"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}
