package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/newslens-inc/newslens-engine/pkg/database"
	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// EntityMentionRepository provides data access for entity mention records.
// Mention records are append-only: there is no update or delete surface.
type EntityMentionRepository interface {
	// Create persists a mention record. The insert is idempotent: a record
	// already existing for the (article_id, canonical_entity_id) pair is
	// left untouched and created=false is returned.
	Create(ctx context.Context, mention *models.EntityMentionRecord) (created bool, err error)

	// GetByArticle returns all mention records for one article.
	GetByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.EntityMentionRecord, error)

	// ListEntityTimeline returns the entity's mention history joined with
	// article metadata, ordered by published_at, for articles published in
	// [start, end].
	ListEntityTimeline(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.TimelineEntry, error)

	// GetArticleIDsMentioningEntity returns ids of articles mentioning the
	// entity, published at or after since.
	GetArticleIDsMentioningEntity(ctx context.Context, entityID uuid.UUID, since time.Time) ([]uuid.UUID, error)

	// CountByEntity returns mention count, average sentiment, and first/last
	// mention timestamps for an entity across all history.
	CountByEntity(ctx context.Context, entityID uuid.UUID) (*MentionStats, error)

	// FramingCountsByEntity returns per-framing-category mention counts.
	FramingCountsByEntity(ctx context.Context, entityID uuid.UUID) (map[string]int, error)
}

// MentionStats is the aggregate mention summary used for profile rebuilds.
type MentionStats struct {
	MentionCount     int
	AverageSentiment float64
	FirstMentionedAt *time.Time
	LastMentionedAt  *time.Time
}

type entityMentionRepository struct {
	db *database.DB
}

// NewEntityMentionRepository creates a new EntityMentionRepository.
func NewEntityMentionRepository(db *database.DB) EntityMentionRepository {
	return &entityMentionRepository{db: db}
}

var _ EntityMentionRepository = (*entityMentionRepository)(nil)

func (r *entityMentionRepository) Create(ctx context.Context, mention *models.EntityMentionRecord) (bool, error) {
	mention.CreatedAt = time.Now()

	if mention.ID == uuid.Nil {
		mention.ID = uuid.New()
	}

	query := `
		INSERT INTO entity_mentions (
			id, article_id, canonical_entity_id, original_text,
			sentiment_score, framing_category, context_text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (article_id, canonical_entity_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		mention.ID, mention.ArticleID, mention.CanonicalEntityID, mention.OriginalText,
		mention.SentimentScore, mention.FramingCategory, mention.ContextText, mention.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create entity mention: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *entityMentionRepository) GetByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.EntityMentionRecord, error) {
	query := `
		SELECT id, article_id, canonical_entity_id, original_text,
		       sentiment_score, framing_category, context_text, created_at
		FROM entity_mentions
		WHERE article_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity mentions: %w", err)
	}
	defer rows.Close()

	var mentions []*models.EntityMentionRecord
	for rows.Next() {
		mention, err := scanEntityMention(rows)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, mention)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity mentions: %w", err)
	}

	return mentions, nil
}

func (r *entityMentionRepository) ListEntityTimeline(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.TimelineEntry, error) {
	query := `
		SELECT m.article_id, a.title, m.context_text, m.sentiment_score, a.published_at
		FROM entity_mentions m
		JOIN articles a ON m.article_id = a.id
		WHERE m.canonical_entity_id = $1
		  AND a.published_at >= $2 AND a.published_at <= $3
		ORDER BY a.published_at, a.id`

	rows, err := r.db.Query(ctx, query, entityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity timeline: %w", err)
	}
	defer rows.Close()

	var entries []*models.TimelineEntry
	for rows.Next() {
		var entry models.TimelineEntry
		if err := rows.Scan(&entry.ArticleID, &entry.Title, &entry.Context, &entry.SentimentScore, &entry.Date); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline entries: %w", err)
	}

	return entries, nil
}

func (r *entityMentionRepository) GetArticleIDsMentioningEntity(ctx context.Context, entityID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT m.article_id
		FROM entity_mentions m
		JOIN articles a ON m.article_id = a.id
		WHERE m.canonical_entity_id = $1 AND a.published_at >= $2
		ORDER BY a.published_at, a.id`

	rows, err := r.db.Query(ctx, query, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles mentioning entity: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan article id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article ids: %w", err)
	}

	return ids, nil
}

func (r *entityMentionRepository) CountByEntity(ctx context.Context, entityID uuid.UUID) (*MentionStats, error) {
	query := `
		SELECT count(*), coalesce(avg(sentiment_score), 0), min(created_at), max(created_at)
		FROM entity_mentions
		WHERE canonical_entity_id = $1`

	var stats MentionStats
	err := r.db.QueryRow(ctx, query, entityID).Scan(
		&stats.MentionCount, &stats.AverageSentiment,
		&stats.FirstMentionedAt, &stats.LastMentionedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mention stats: %w", err)
	}

	return &stats, nil
}

func (r *entityMentionRepository) FramingCountsByEntity(ctx context.Context, entityID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT framing_category, count(*)
		FROM entity_mentions
		WHERE canonical_entity_id = $1
		GROUP BY framing_category`

	rows, err := r.db.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query framing counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan framing count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating framing counts: %w", err)
	}

	return counts, nil
}

func scanEntityMention(row pgx.Row) (*models.EntityMentionRecord, error) {
	var m models.EntityMentionRecord

	err := row.Scan(
		&m.ID, &m.ArticleID, &m.CanonicalEntityID, &m.OriginalText,
		&m.SentimentScore, &m.FramingCategory, &m.ContextText, &m.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entity mention: %w", err)
	}

	return &m, nil
}
