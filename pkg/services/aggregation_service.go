package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
)

// DefaultRelationshipWindowDays is the fallback lookback for
// co-occurrence queries when the configured window is absent.
const DefaultRelationshipWindowDays = 30

// AggregationService answers read-only queries over mention history.
// All queries are restartable and may run concurrently with writes;
// results are eventually consistent.
type AggregationService interface {
	// EntityTimeline returns the entity's article appearances in
	// [start, end], ordered by published_at.
	EntityTimeline(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.TimelineEntry, error)

	// EntitySentimentTrend returns per-day average sentiment and mention
	// count over [start, end]. The series is dense: every day in the
	// window is present, days with no mentions carrying count 0 and
	// average 0.
	EntitySentimentTrend(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.SentimentBucket, error)

	// EntityRelationships finds entities co-mentioned with the given
	// entity in articles published in the last `days` days, ranked by
	// co-occurrence count descending with name-ascending tie-break.
	// Confidence is count / articles considered. A non-positive days
	// falls back to the service's configured window.
	EntityRelationships(ctx context.Context, entityID uuid.UUID, days int) ([]*models.RelationshipEdge, error)
}

type aggregationService struct {
	entityRepo  repositories.CanonicalEntityRepository
	mentionRepo repositories.EntityMentionRepository
	windowDays  int
	logger      *zap.Logger
}

// NewAggregationService creates a new AggregationService. windowDays is
// the default co-occurrence lookback; non-positive values fall back to
// DefaultRelationshipWindowDays.
func NewAggregationService(
	entityRepo repositories.CanonicalEntityRepository,
	mentionRepo repositories.EntityMentionRepository,
	windowDays int,
	logger *zap.Logger,
) AggregationService {
	if windowDays <= 0 {
		windowDays = DefaultRelationshipWindowDays
	}
	return &aggregationService{
		entityRepo:  entityRepo,
		mentionRepo: mentionRepo,
		windowDays:  windowDays,
		logger:      logger.Named("aggregation"),
	}
}

var _ AggregationService = (*aggregationService)(nil)

func (s *aggregationService) EntityTimeline(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.TimelineEntry, error) {
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}

	entries, err := s.mentionRepo.ListEntityTimeline(ctx, entityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	if entries == nil {
		entries = []*models.TimelineEntry{}
	}

	return entries, nil
}

func (s *aggregationService) EntitySentimentTrend(ctx context.Context, entityID uuid.UUID, start, end time.Time) ([]*models.SentimentBucket, error) {
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}

	entries, err := s.mentionRepo.ListEntityTimeline(ctx, entityID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list mentions for trend: %w", err)
	}

	type accumulator struct {
		sum   float64
		count int
	}
	byDay := make(map[time.Time]*accumulator)
	for _, entry := range entries {
		day := entry.Date.UTC().Truncate(24 * time.Hour)
		acc, ok := byDay[day]
		if !ok {
			acc = &accumulator{}
			byDay[day] = acc
		}
		acc.sum += entry.SentimentScore
		acc.count++
	}

	buckets := []*models.SentimentBucket{}
	first := start.UTC().Truncate(24 * time.Hour)
	last := end.UTC().Truncate(24 * time.Hour)
	for day := first; !day.After(last); day = day.Add(24 * time.Hour) {
		bucket := &models.SentimentBucket{Date: day}
		if acc, ok := byDay[day]; ok {
			bucket.AverageSentiment = acc.sum / float64(acc.count)
			bucket.MentionCount = acc.count
		}
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

// EntityRelationships walks every article mentioning the entity in the
// window and tallies the other entities mentioned alongside it.
// O(articles x entities-per-article): sized for single-entity dashboard
// queries, not full-graph mining.
func (s *aggregationService) EntityRelationships(ctx context.Context, entityID uuid.UUID, days int) ([]*models.RelationshipEdge, error) {
	if err := s.requireEntity(ctx, entityID); err != nil {
		return nil, err
	}

	if days <= 0 {
		days = s.windowDays
	}
	since := time.Now().AddDate(0, 0, -days)
	articleIDs, err := s.mentionRepo.GetArticleIDsMentioningEntity(ctx, entityID, since)
	if err != nil {
		return nil, fmt.Errorf("list articles mentioning entity: %w", err)
	}
	if len(articleIDs) == 0 {
		return []*models.RelationshipEdge{}, nil
	}

	counts := make(map[uuid.UUID]int)
	for _, articleID := range articleIDs {
		mentions, err := s.mentionRepo.GetByArticle(ctx, articleID)
		if err != nil {
			return nil, fmt.Errorf("list mentions for article %s: %w", articleID, err)
		}
		for _, mention := range mentions {
			if mention.CanonicalEntityID != entityID {
				counts[mention.CanonicalEntityID]++
			}
		}
	}

	otherIDs := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		otherIDs = append(otherIDs, id)
	}
	others, err := s.entityRepo.GetByIDs(ctx, otherIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve co-occurring entities: %w", err)
	}

	edges := make([]*models.RelationshipEdge, 0, len(counts))
	for id, count := range counts {
		other, ok := others[id]
		if !ok {
			continue
		}
		edges = append(edges, &models.RelationshipEdge{
			SourceEntityID:    entityID,
			TargetEntityID:    id,
			TargetName:        other.Name,
			TargetType:        other.EntityType,
			RelationshipType:  models.RelationshipTypeCoOccurrence,
			CoOccurrenceCount: count,
			Confidence:        float64(count) / float64(len(articleIDs)),
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CoOccurrenceCount != edges[j].CoOccurrenceCount {
			return edges[i].CoOccurrenceCount > edges[j].CoOccurrenceCount
		}
		return edges[i].TargetName < edges[j].TargetName
	})

	s.logger.Debug("Computed entity relationships",
		zap.String("entity_id", entityID.String()),
		zap.Int("articles_considered", len(articleIDs)),
		zap.Int("related_entities", len(edges)))

	return edges, nil
}

func (s *aggregationService) requireEntity(ctx context.Context, entityID uuid.UUID) error {
	entity, err := s.entityRepo.GetByID(ctx, entityID)
	if err != nil {
		return fmt.Errorf("get entity: %w", err)
	}
	if entity == nil {
		return fmt.Errorf("entity %s: %w", entityID, apperrors.ErrNotFound)
	}
	return nil
}
