package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/analysis"
	"github.com/newslens-inc/newslens-engine/pkg/logging"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
)

// MentionService records one article's raw mentions against canonical
// entities. Recording is idempotent: within a pass the first mention of a
// canonical entity wins, and across passes the store keeps at most one
// record per (article, entity) pair.
type MentionService interface {
	RecordMentions(ctx context.Context, article *models.Article, mentions []models.RawMention) ([]models.MentionSummary, error)
}

type mentionService struct {
	analyzer    analysis.ContextAnalyzer
	resolver    ResolverService
	mentionRepo repositories.EntityMentionRepository
	logger      *zap.Logger
}

// NewMentionService creates a new MentionService.
func NewMentionService(
	analyzer analysis.ContextAnalyzer,
	resolver ResolverService,
	mentionRepo repositories.EntityMentionRepository,
	logger *zap.Logger,
) MentionService {
	return &mentionService{
		analyzer:    analyzer,
		resolver:    resolver,
		mentionRepo: mentionRepo,
		logger:      logger.Named("mention-recorder"),
	}
}

var _ MentionService = (*mentionService)(nil)

// RecordMentions analyzes, resolves, and persists each raw mention.
// An empty mention list yields an empty summary list with zero writes.
// May create new canonical entities; never mutates existing mention records.
func (s *mentionService) RecordMentions(ctx context.Context, article *models.Article, mentions []models.RawMention) ([]models.MentionSummary, error) {
	summaries := make([]models.MentionSummary, 0, len(mentions))
	if len(mentions) == 0 {
		return summaries, nil
	}

	// In-pass dedup: one record per canonical entity per article.
	seen := make(map[uuid.UUID]struct{}, len(mentions))

	for _, mention := range mentions {
		result := s.analyzer.Analyze(mention.SentenceContext)

		entity, err := s.resolver.Resolve(ctx, mention.Text, mention.Type)
		if err != nil {
			return nil, fmt.Errorf("resolve mention %q: %w", mention.Text, err)
		}

		if _, dup := seen[entity.ID]; dup {
			s.logger.Debug("Skipping duplicate in-article mention",
				zap.String("article_id", article.ID.String()),
				zap.String("entity_id", entity.ID.String()),
				zap.String("mention", mention.Text))
			continue
		}
		seen[entity.ID] = struct{}{}

		record := &models.EntityMentionRecord{
			ArticleID:         article.ID,
			CanonicalEntityID: entity.ID,
			OriginalText:      mention.Text,
			SentimentScore:    result.Sentiment.Score,
			FramingCategory:   result.Framing.Category,
			ContextText:       mention.SentenceContext,
		}

		created, err := s.mentionRepo.Create(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("persist mention of %q: %w", entity.Name, err)
		}
		if !created {
			// Record already exists from an earlier pass over the same
			// article; the summary is still reported.
			s.logger.Debug("Mention already recorded",
				zap.String("article_id", article.ID.String()),
				zap.String("entity_id", entity.ID.String()))
		}

		summaries = append(summaries, models.MentionSummary{
			OriginalText:    mention.Text,
			CanonicalName:   entity.Name,
			CanonicalID:     entity.ID,
			Context:         mention.SentenceContext,
			SentimentScore:  result.Sentiment.Score,
			FramingCategory: result.Framing.Category,
		})
	}

	s.logger.Info("Recorded article mentions",
		zap.String("article_id", article.ID.String()),
		zap.String("title", logging.Snippet(article.Title)),
		zap.Int("raw_mentions", len(mentions)),
		zap.Int("recorded", len(summaries)))

	return summaries, nil
}
