package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/analysis"
	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/retry"
)

// ============================================================================
// Mock Implementations for Orchestrator Tests
// ============================================================================

type mockExtractor struct {
	mentions map[string][]models.RawMention // keyed by article content
	err      error
	calls    int
}

func (m *mockExtractor) Extract(ctx context.Context, text string) ([]models.RawMention, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.mentions[text], nil
}

type mockArticleRepo struct {
	articles      []*models.Article
	statusUpdates map[uuid.UUID]string
	listErr       error
	updateErr     error
}

func newMockArticleRepo(articles ...*models.Article) *mockArticleRepo {
	return &mockArticleRepo{
		articles:      articles,
		statusUpdates: make(map[uuid.UUID]string),
	}
}

func (m *mockArticleRepo) GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	for _, a := range m.articles {
		if a.ID == articleID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockArticleRepo) ListByStatus(ctx context.Context, status string) ([]*models.Article, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*models.Article
	for _, a := range m.articles {
		if a.Status == status {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockArticleRepo) UpdateStatus(ctx context.Context, articleID uuid.UUID, status string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates[articleID] = status
	return nil
}

// fastRetry keeps test retries instantaneous.
func fastRetry(maxRetries int) *retry.Config {
	return &retry.Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Microsecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2.0,
	}
}

func newTestTracker(extractor *mockExtractor, articleRepo *mockArticleRepo) (TrackingService, *mockMentionRepo) {
	mentionRepo := &mockMentionRepo{}
	recorder := NewMentionService(analysis.NewContextAnalyzer(), newMockResolver(), mentionRepo, zap.NewNop())
	tracker := NewTrackingService(extractor, recorder, articleRepo, fastRetry(0), zap.NewNop())
	return tracker, mentionRepo
}

// ============================================================================
// ProcessArticle
// ============================================================================

func TestProcessArticle_RecordsMentions(t *testing.T) {
	article := &models.Article{
		ID:          uuid.New(),
		Title:       "Local election results",
		Content:     "John Doe won the election. Acme Corp praised the result.",
		Status:      models.ArticleStatusScraped,
		PublishedAt: time.Now(),
	}
	extractor := &mockExtractor{mentions: map[string][]models.RawMention{
		article.Content: {
			{Text: "John Doe", Type: "person", SentenceContext: "John Doe won the election."},
			{Text: "Acme Corp", Type: "organization", SentenceContext: "Acme Corp praised the result."},
		},
	}}

	tracker, mentionRepo := newTestTracker(extractor, newMockArticleRepo(article))

	summaries, err := tracker.ProcessArticle(context.Background(), article)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Len(t, mentionRepo.records, 2)
}

func TestProcessArticle_EmptyContentNoExtractionNoWrites(t *testing.T) {
	article := &models.Article{ID: uuid.New(), Content: "   "}
	extractor := &mockExtractor{}

	tracker, mentionRepo := newTestTracker(extractor, newMockArticleRepo())

	summaries, err := tracker.ProcessArticle(context.Background(), article)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Equal(t, 0, extractor.calls, "empty content must not hit the extractor")
	assert.Empty(t, mentionRepo.records)
}

func TestProcessArticle_EmptyExtractorResult(t *testing.T) {
	article := &models.Article{ID: uuid.New(), Content: "Nothing notable happened."}
	extractor := &mockExtractor{}

	tracker, mentionRepo := newTestTracker(extractor, newMockArticleRepo())

	summaries, err := tracker.ProcessArticle(context.Background(), article)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Empty(t, mentionRepo.records)
}

func TestProcessArticle_ExtractionFailureIsStructured(t *testing.T) {
	article := &models.Article{ID: uuid.New(), Content: "some content"}
	extractor := &mockExtractor{err: apperrors.ErrExtractionFailed}

	tracker, _ := newTestTracker(extractor, newMockArticleRepo())

	_, err := tracker.ProcessArticle(context.Background(), article)
	require.Error(t, err)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "process_article", taskErr.Task)
	assert.Equal(t, ErrKindExtraction, taskErr.Kind)
	assert.ErrorIs(t, err, apperrors.ErrExtractionFailed)
}

func TestProcessArticle_ExtractionRetried(t *testing.T) {
	article := &models.Article{ID: uuid.New(), Content: "some content"}
	extractor := &mockExtractor{err: errors.New("upstream busy")}

	recorder := NewMentionService(analysis.NewContextAnalyzer(), newMockResolver(), &mockMentionRepo{}, zap.NewNop())
	tracker := NewTrackingService(extractor, recorder, newMockArticleRepo(), fastRetry(2), zap.NewNop())

	_, err := tracker.ProcessArticle(context.Background(), article)
	require.Error(t, err)
	assert.Equal(t, 3, extractor.calls, "initial attempt plus two retries")
}

// ============================================================================
// ProcessArticleBatch
// ============================================================================

func TestProcessArticleBatch_TalliesAndMarksProcessed(t *testing.T) {
	good := &models.Article{
		ID: uuid.New(), Title: "good", Content: "John Doe spoke.",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}
	empty := &models.Article{
		ID: uuid.New(), Title: "empty", Content: "",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}
	other := &models.Article{
		ID: uuid.New(), Title: "already done", Content: "x",
		Status: models.ArticleStatusEntityTracked, PublishedAt: time.Now(),
	}

	extractor := &mockExtractor{mentions: map[string][]models.RawMention{
		good.Content: {{Text: "John Doe", Type: "person", SentenceContext: "John Doe spoke."}},
	}}
	articleRepo := newMockArticleRepo(good, empty, other)

	tracker, _ := newTestTracker(extractor, articleRepo)

	result, err := tracker.ProcessArticleBatch(context.Background(), models.ArticleStatusScraped)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total, "status filter excludes already-tracked articles")
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, models.ArticleStatusEntityTracked, articleRepo.statusUpdates[good.ID])
	assert.Equal(t, models.ArticleStatusEntityTracked, articleRepo.statusUpdates[empty.ID])

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Results[0].MentionCount)
	assert.Equal(t, 0, result.Results[1].MentionCount)
	assert.Len(t, result.EntityIDs, 1, "batch reports the distinct entities it touched")
}

func TestProcessArticleBatch_EntityIDsAreDistinct(t *testing.T) {
	first := &models.Article{
		ID: uuid.New(), Title: "first", Content: "John Doe spoke.",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}
	second := &models.Article{
		ID: uuid.New(), Title: "second", Content: "John Doe spoke again.",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}

	extractor := &mockExtractor{mentions: map[string][]models.RawMention{
		first.Content:  {{Text: "John Doe", Type: "person", SentenceContext: "John Doe spoke."}},
		second.Content: {{Text: "John Doe", Type: "person", SentenceContext: "John Doe spoke again."}},
	}}

	tracker, _ := newTestTracker(extractor, newMockArticleRepo(first, second))

	result, err := tracker.ProcessArticleBatch(context.Background(), models.ArticleStatusScraped)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Len(t, result.EntityIDs, 1, "same entity across articles is reported once")
}

func TestProcessArticleBatch_ContinuesPastItemFailures(t *testing.T) {
	failing := &models.Article{
		ID: uuid.New(), Title: "failing", Content: "unextractable",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}
	good := &models.Article{
		ID: uuid.New(), Title: "good", Content: "John Doe spoke.",
		Status: models.ArticleStatusScraped, PublishedAt: time.Now(),
	}

	extractor := &mockExtractor{mentions: map[string][]models.RawMention{
		good.Content: {{Text: "John Doe", Type: "person", SentenceContext: "John Doe spoke."}},
	}}
	// First article fails extraction, second succeeds.
	failOnce := &flakyExtractor{inner: extractor, failFor: failing.Content}

	articleRepo := newMockArticleRepo(failing, good)
	recorder := NewMentionService(analysis.NewContextAnalyzer(), newMockResolver(), &mockMentionRepo{}, zap.NewNop())
	tracker := NewTrackingService(failOnce, recorder, articleRepo, fastRetry(0), zap.NewNop())

	result, err := tracker.ProcessArticleBatch(context.Background(), models.ArticleStatusScraped)
	require.NoError(t, err, "item failures must not abort the batch")

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "error", result.Results[0].Status)
	assert.NotEmpty(t, result.Results[0].Error)
	assert.Equal(t, "processed", result.Results[1].Status)

	_, failedMarked := articleRepo.statusUpdates[failing.ID]
	assert.False(t, failedMarked, "failed article keeps its status")
	assert.Equal(t, models.ArticleStatusEntityTracked, articleRepo.statusUpdates[good.ID])
}

func TestProcessArticleBatch_ListFailureAborts(t *testing.T) {
	articleRepo := newMockArticleRepo()
	articleRepo.listErr = errors.New("connection refused")

	tracker, _ := newTestTracker(&mockExtractor{}, articleRepo)

	_, err := tracker.ProcessArticleBatch(context.Background(), models.ArticleStatusScraped)
	require.Error(t, err)
}

// flakyExtractor fails extraction for one specific article body.
type flakyExtractor struct {
	inner   *mockExtractor
	failFor string
}

func (f *flakyExtractor) Extract(ctx context.Context, text string) ([]models.RawMention, error) {
	if text == f.failFor {
		return nil, apperrors.ErrExtractionFailed
	}
	return f.inner.Extract(ctx, text)
}
