package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/testhelpers"
)

// insertTestArticle writes an article row directly; the engine never
// creates articles, it only consumes them.
func insertTestArticle(t *testing.T, tdb *testhelpers.TestDB, title, status string, publishedAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := tdb.Pool.Exec(context.Background(),
		`INSERT INTO articles (id, title, content, url, status, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, title, "article body", "https://example.com/"+id.String(), status, publishedAt,
	)
	require.NoError(t, err)
	return id
}

func recordMention(t *testing.T, repo EntityMentionRepository, articleID, entityID uuid.UUID, sentiment float64, framing string) {
	t.Helper()
	created, err := repo.Create(context.Background(), &models.EntityMentionRecord{
		ArticleID:         articleID,
		CanonicalEntityID: entityID,
		OriginalText:      "mention",
		SentimentScore:    sentiment,
		FramingCategory:   framing,
		ContextText:       "context sentence",
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestEntityMentionRepository_CreateIsIdempotent(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	mentionRepo := NewEntityMentionRepository(tdb.DB())
	entityRepo := NewCanonicalEntityRepository(tdb.DB())
	ctx := context.Background()

	articleID := insertTestArticle(t, tdb, "idempotence", "scraped", time.Now())
	entity := createTestEntity(t, entityRepo, uniqueName("Idem Person"), models.EntityTypePerson)

	first := &models.EntityMentionRecord{
		ArticleID:         articleID,
		CanonicalEntityID: entity.ID,
		OriginalText:      "Idem Person",
		SentimentScore:    0.5,
		FramingCategory:   "leader",
		ContextText:       "first write",
	}
	created, err := mentionRepo.Create(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	// Second write for the same pair is a no-op.
	second := &models.EntityMentionRecord{
		ArticleID:         articleID,
		CanonicalEntityID: entity.ID,
		OriginalText:      "Idem Person again",
		SentimentScore:    -0.9,
		FramingCategory:   "villain",
		ContextText:       "second write",
	}
	created, err = mentionRepo.Create(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	mentions, err := mentionRepo.GetByArticle(ctx, articleID)
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, "first write", mentions[0].ContextText, "original record is left untouched")
	assert.Equal(t, 0.5, mentions[0].SentimentScore)
}

func TestEntityMentionRepository_Timeline(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	mentionRepo := NewEntityMentionRepository(tdb.DB())
	entityRepo := NewCanonicalEntityRepository(tdb.DB())
	ctx := context.Background()

	entity := createTestEntity(t, entityRepo, uniqueName("Timeline Person"), models.EntityTypePerson)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	early := insertTestArticle(t, tdb, "early", "scraped", base)
	late := insertTestArticle(t, tdb, "late", "scraped", base.AddDate(0, 0, 5))
	outside := insertTestArticle(t, tdb, "outside", "scraped", base.AddDate(0, 1, 0))

	recordMention(t, mentionRepo, early, entity.ID, 0.6, "leader")
	recordMention(t, mentionRepo, late, entity.ID, -0.4, "villain")
	recordMention(t, mentionRepo, outside, entity.ID, 0.1, "neutral")

	entries, err := mentionRepo.ListEntityTimeline(ctx, entity.ID, base, base.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, entries, 2, "articles outside the range are excluded")
	assert.Equal(t, early, entries[0].ArticleID)
	assert.Equal(t, "early", entries[0].Title)
	assert.Equal(t, 0.6, entries[0].SentimentScore)
	assert.Equal(t, late, entries[1].ArticleID)
}

func TestEntityMentionRepository_ArticleIDsSince(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	mentionRepo := NewEntityMentionRepository(tdb.DB())
	entityRepo := NewCanonicalEntityRepository(tdb.DB())
	ctx := context.Background()

	entity := createTestEntity(t, entityRepo, uniqueName("Recent Person"), models.EntityTypePerson)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	old := insertTestArticle(t, tdb, "old", "scraped", base.AddDate(0, 0, -40))
	recent := insertTestArticle(t, tdb, "recent", "scraped", base.AddDate(0, 0, -3))

	recordMention(t, mentionRepo, old, entity.ID, 0, "neutral")
	recordMention(t, mentionRepo, recent, entity.ID, 0, "neutral")

	ids, err := mentionRepo.GetArticleIDsMentioningEntity(ctx, entity.ID, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, recent, ids[0])
}

func TestEntityMentionRepository_CountByEntity(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	mentionRepo := NewEntityMentionRepository(tdb.DB())
	entityRepo := NewCanonicalEntityRepository(tdb.DB())
	ctx := context.Background()

	entity := createTestEntity(t, entityRepo, uniqueName("Counted Person"), models.EntityTypePerson)

	a1 := insertTestArticle(t, tdb, "a1", "scraped", time.Now())
	a2 := insertTestArticle(t, tdb, "a2", "scraped", time.Now())
	recordMention(t, mentionRepo, a1, entity.ID, 0.8, "leader")
	recordMention(t, mentionRepo, a2, entity.ID, -0.2, "leader")

	stats, err := mentionRepo.CountByEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.MentionCount)
	assert.InDelta(t, 0.3, stats.AverageSentiment, 0.0001)
	require.NotNil(t, stats.FirstMentionedAt)
	require.NotNil(t, stats.LastMentionedAt)

	// No mentions: zero stats, nil timestamps.
	stats, err = mentionRepo.CountByEntity(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stats.MentionCount)
	assert.Zero(t, stats.AverageSentiment)
	assert.Nil(t, stats.FirstMentionedAt)
}

func TestEntityMentionRepository_FramingCounts(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	mentionRepo := NewEntityMentionRepository(tdb.DB())
	entityRepo := NewCanonicalEntityRepository(tdb.DB())
	ctx := context.Background()

	entity := createTestEntity(t, entityRepo, uniqueName("Framed Person"), models.EntityTypePerson)

	for i, framing := range []string{"leader", "leader", "victim"} {
		articleID := insertTestArticle(t, tdb, "framing", "scraped", time.Now().Add(time.Duration(i)*time.Minute))
		recordMention(t, mentionRepo, articleID, entity.ID, 0, framing)
	}

	counts, err := mentionRepo.FramingCountsByEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"leader": 2, "victim": 1}, counts)
}
