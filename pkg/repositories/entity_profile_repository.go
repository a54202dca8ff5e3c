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

// EntityProfileRepository provides data access for derived entity profiles.
type EntityProfileRepository interface {
	// Upsert writes a rebuilt profile, replacing any previous one.
	Upsert(ctx context.Context, profile *models.EntityProfile) error

	// GetByEntity returns the profile or (nil, nil) when absent.
	GetByEntity(ctx context.Context, entityID uuid.UUID) (*models.EntityProfile, error)
}

type entityProfileRepository struct {
	db *database.DB
}

// NewEntityProfileRepository creates a new EntityProfileRepository.
func NewEntityProfileRepository(db *database.DB) EntityProfileRepository {
	return &entityProfileRepository{db: db}
}

var _ EntityProfileRepository = (*entityProfileRepository)(nil)

func (r *entityProfileRepository) Upsert(ctx context.Context, profile *models.EntityProfile) error {
	profile.UpdatedAt = time.Now()

	if profile.Metadata == nil {
		profile.Metadata = map[string]string{}
	}

	query := `
		INSERT INTO entity_profiles (
			canonical_entity_id, summary_content, mention_count, average_sentiment,
			dominant_framing, first_seen_at, last_seen_at, metadata, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (canonical_entity_id) DO UPDATE SET
			summary_content = EXCLUDED.summary_content,
			mention_count = EXCLUDED.mention_count,
			average_sentiment = EXCLUDED.average_sentiment,
			dominant_framing = EXCLUDED.dominant_framing,
			first_seen_at = EXCLUDED.first_seen_at,
			last_seen_at = EXCLUDED.last_seen_at,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		profile.CanonicalEntityID, profile.SummaryContent, profile.MentionCount,
		profile.AverageSentiment, profile.DominantFraming,
		profile.FirstSeenAt, profile.LastSeenAt, profile.Metadata, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity profile: %w", err)
	}

	return nil
}

func (r *entityProfileRepository) GetByEntity(ctx context.Context, entityID uuid.UUID) (*models.EntityProfile, error) {
	query := `
		SELECT canonical_entity_id, summary_content, mention_count, average_sentiment,
		       dominant_framing, first_seen_at, last_seen_at, metadata, updated_at
		FROM entity_profiles
		WHERE canonical_entity_id = $1`

	var p models.EntityProfile
	err := r.db.QueryRow(ctx, query, entityID).Scan(
		&p.CanonicalEntityID, &p.SummaryContent, &p.MentionCount, &p.AverageSentiment,
		&p.DominantFraming, &p.FirstSeenAt, &p.LastSeenAt, &p.Metadata, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan entity profile: %w", err)
	}

	return &p, nil
}
