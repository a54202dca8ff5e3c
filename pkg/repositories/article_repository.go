package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/newslens-inc/newslens-engine/pkg/database"
	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// ArticleRepository provides the tracking engine's read/status access to
// articles. Article rows themselves are owned by the ingestion
// collaborators.
type ArticleRepository interface {
	// GetByID returns the article or (nil, nil) when absent.
	GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error)

	// ListByStatus returns all articles with the given status, oldest
	// published first.
	ListByStatus(ctx context.Context, status string) ([]*models.Article, error)

	// UpdateStatus sets an article's status.
	UpdateStatus(ctx context.Context, articleID uuid.UUID, status string) error
}

type articleRepository struct {
	db *database.DB
}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(db *database.DB) ArticleRepository {
	return &articleRepository{db: db}
}

var _ ArticleRepository = (*articleRepository)(nil)

func (r *articleRepository) GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	query := `
		SELECT id, title, content, url, status, published_at, created_at
		FROM articles
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, articleID)
	article, err := scanArticle(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return article, nil
}

func (r *articleRepository) ListByStatus(ctx context.Context, status string) ([]*models.Article, error) {
	query := `
		SELECT id, title, content, url, status, published_at, created_at
		FROM articles
		WHERE status = $1
		ORDER BY published_at, id`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles by status: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) UpdateStatus(ctx context.Context, articleID uuid.UUID, status string) error {
	query := `UPDATE articles SET status = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, articleID, status)
	if err != nil {
		return fmt.Errorf("failed to update article status: %w", err)
	}

	return nil
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article

	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.URL, &a.Status, &a.PublishedAt, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	return &a, nil
}
