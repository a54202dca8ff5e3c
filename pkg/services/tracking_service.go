package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/extraction"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
	"github.com/newslens-inc/newslens-engine/pkg/retry"
)

// Task error kinds surfaced by the orchestrator.
const (
	ErrKindExtraction  = "extraction_failure"
	ErrKindPersistence = "persistence_failure"
)

// TaskError is the structured error returned from single-article
// processing. The caller owns retry/backoff policy.
type TaskError struct {
	Task    string
	Kind    string
	Message string
	Err     error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Task, e.Kind, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// ArticleResult is the per-article outcome within a batch run.
type ArticleResult struct {
	ArticleID    uuid.UUID `json:"article_id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"` // "processed" or "error"
	MentionCount int       `json:"mention_count"`
	Error        string    `json:"error,omitempty"`
}

// BatchResult tallies a batch run. EntityIDs lists the distinct
// canonical entities touched by successfully processed articles, in
// first-seen order, so callers can rebuild their derived profiles.
type BatchResult struct {
	Total     int             `json:"total"`
	Processed int             `json:"processed"`
	Errors    int             `json:"errors"`
	Results   []ArticleResult `json:"results"`
	EntityIDs []uuid.UUID     `json:"entity_ids,omitempty"`
}

// TrackingService is the end-to-end facade over extraction, resolution,
// and mention recording.
type TrackingService interface {
	// ProcessArticle extracts and records every entity mention in one
	// article. Empty content yields an empty summary list with zero store
	// writes. Failures are returned as *TaskError.
	ProcessArticle(ctx context.Context, article *models.Article) ([]models.MentionSummary, error)

	// ProcessArticleBatch runs ProcessArticle over every article with the
	// given status, isolating per-article failures, and marks each
	// successfully processed article as entity_tracked. It returns an
	// error only for infrastructure failures (the candidate listing
	// itself).
	ProcessArticleBatch(ctx context.Context, statusFilter string) (*BatchResult, error)
}

type trackingService struct {
	extractor   extraction.Extractor
	mentions    MentionService
	articleRepo repositories.ArticleRepository
	retryCfg    *retry.Config
	logger      *zap.Logger
}

// NewTrackingService creates a new TrackingService. retryCfg bounds
// retries of failed extraction calls; nil uses retry.DefaultConfig.
func NewTrackingService(
	extractor extraction.Extractor,
	mentions MentionService,
	articleRepo repositories.ArticleRepository,
	retryCfg *retry.Config,
	logger *zap.Logger,
) TrackingService {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &trackingService{
		extractor:   extractor,
		mentions:    mentions,
		articleRepo: articleRepo,
		retryCfg:    retryCfg,
		logger:      logger.Named("tracking"),
	}
}

var _ TrackingService = (*trackingService)(nil)

func (s *trackingService) ProcessArticle(ctx context.Context, article *models.Article) ([]models.MentionSummary, error) {
	if article == nil {
		return nil, &TaskError{
			Task:    "process_article",
			Kind:    ErrKindPersistence,
			Message: "article is nil",
		}
	}

	if strings.TrimSpace(article.Content) == "" {
		return []models.MentionSummary{}, nil
	}

	rawMentions, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]models.RawMention, error) {
		return s.extractor.Extract(ctx, article.Content)
	})
	if err != nil {
		return nil, &TaskError{
			Task:    "process_article",
			Kind:    ErrKindExtraction,
			Message: fmt.Sprintf("extract mentions for article %s: %v", article.ID, err),
			Err:     err,
		}
	}

	summaries, err := s.mentions.RecordMentions(ctx, article, rawMentions)
	if err != nil {
		return nil, &TaskError{
			Task:    "process_article",
			Kind:    classifyKind(err),
			Message: fmt.Sprintf("record mentions for article %s: %v", article.ID, err),
			Err:     err,
		}
	}

	return summaries, nil
}

func (s *trackingService) ProcessArticleBatch(ctx context.Context, statusFilter string) (*BatchResult, error) {
	articles, err := s.articleRepo.ListByStatus(ctx, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("list articles with status %q: %w", statusFilter, err)
	}

	result := &BatchResult{
		Total:   len(articles),
		Results: make([]ArticleResult, 0, len(articles)),
	}
	seenEntities := make(map[uuid.UUID]struct{})

	for _, article := range articles {
		itemResult := ArticleResult{
			ArticleID: article.ID,
			Title:     article.Title,
		}

		summaries, err := s.ProcessArticle(ctx, article)
		if err == nil {
			err = s.articleRepo.UpdateStatus(ctx, article.ID, models.ArticleStatusEntityTracked)
		}

		if err != nil {
			itemResult.Status = "error"
			itemResult.Error = err.Error()
			result.Errors++
			s.logger.Warn("Article processing failed",
				zap.String("article_id", article.ID.String()),
				zap.Error(err))
		} else {
			itemResult.Status = "processed"
			itemResult.MentionCount = len(summaries)
			result.Processed++
			for _, summary := range summaries {
				if _, seen := seenEntities[summary.CanonicalID]; !seen {
					seenEntities[summary.CanonicalID] = struct{}{}
					result.EntityIDs = append(result.EntityIDs, summary.CanonicalID)
				}
			}
		}

		result.Results = append(result.Results, itemResult)
	}

	s.logger.Info("Batch processing complete",
		zap.String("status_filter", statusFilter),
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors))

	return result, nil
}

func classifyKind(err error) string {
	if errors.Is(err, apperrors.ErrExtractionFailed) {
		return ErrKindExtraction
	}
	return ErrKindPersistence
}
