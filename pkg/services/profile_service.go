package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/analysis"
	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
)

// ProfileService rebuilds derived per-entity profiles from mention
// history. Profiles are a convenience aggregate, never authoritative;
// callers own the rebuild schedule.
type ProfileService interface {
	Rebuild(ctx context.Context, entityID uuid.UUID) (*models.EntityProfile, error)
}

// topRelatedLimit caps how many co-occurring entity names are carried
// in profile metadata.
const topRelatedLimit = 3

type profileService struct {
	entityRepo   repositories.CanonicalEntityRepository
	mentionRepo  repositories.EntityMentionRepository
	profileRepo  repositories.EntityProfileRepository
	aggregations AggregationService
	logger       *zap.Logger
}

// NewProfileService creates a new ProfileService. The aggregation
// service supplies co-occurrence edges over its configured window.
func NewProfileService(
	entityRepo repositories.CanonicalEntityRepository,
	mentionRepo repositories.EntityMentionRepository,
	profileRepo repositories.EntityProfileRepository,
	aggregations AggregationService,
	logger *zap.Logger,
) ProfileService {
	return &profileService{
		entityRepo:   entityRepo,
		mentionRepo:  mentionRepo,
		profileRepo:  profileRepo,
		aggregations: aggregations,
		logger:       logger.Named("entity-profile"),
	}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) Rebuild(ctx context.Context, entityID uuid.UUID) (*models.EntityProfile, error) {
	entity, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	if entity == nil {
		return nil, fmt.Errorf("entity %s: %w", entityID, apperrors.ErrNotFound)
	}

	stats, err := s.mentionRepo.CountByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("mention stats: %w", err)
	}

	framingCounts, err := s.mentionRepo.FramingCountsByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("framing counts: %w", err)
	}

	// Co-occurrence over the aggregation service's configured window.
	edges, err := s.aggregations.EntityRelationships(ctx, entityID, 0)
	if err != nil {
		return nil, fmt.Errorf("related entities: %w", err)
	}

	profile := &models.EntityProfile{
		CanonicalEntityID: entityID,
		MentionCount:      stats.MentionCount,
		AverageSentiment:  stats.AverageSentiment,
		DominantFraming:   dominantFraming(framingCounts),
		FirstSeenAt:       stats.FirstMentionedAt,
		LastSeenAt:        stats.LastMentionedAt,
		SummaryContent: fmt.Sprintf("%s (%s): %d mentions, average sentiment %.2f",
			entity.Name, entity.EntityType, stats.MentionCount, stats.AverageSentiment),
	}
	if related := topRelatedNames(edges); related != "" {
		profile.Metadata = map[string]string{"top_related": related}
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	s.logger.Info("Rebuilt entity profile",
		zap.String("entity_id", entityID.String()),
		zap.Int("mention_count", profile.MentionCount))

	return profile, nil
}

// topRelatedNames joins the highest-ranked co-occurring entity names.
// Edges arrive already ranked by the aggregation service.
func topRelatedNames(edges []*models.RelationshipEdge) string {
	names := make([]string, 0, topRelatedLimit)
	for _, edge := range edges {
		names = append(names, edge.TargetName)
		if len(names) == topRelatedLimit {
			break
		}
	}
	return strings.Join(names, ", ")
}

// dominantFraming picks the most frequent framing category; ties go to
// the alphabetically first category, no mentions to neutral.
func dominantFraming(counts map[string]int) string {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	best := analysis.FramingNeutral
	bestCount := 0
	for _, category := range categories {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}
	return best
}
