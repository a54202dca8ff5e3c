package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/database"
	"github.com/newslens-inc/newslens-engine/pkg/models"
)

// CanonicalEntityRepository provides data access for canonical entities.
type CanonicalEntityRepository interface {
	// Create persists a new canonical entity. Returns apperrors.ErrConflict
	// when an entity with the same exact name and type already exists
	// (concurrent create race).
	Create(ctx context.Context, entity *models.CanonicalEntity) error

	// GetByID returns the entity or (nil, nil) when absent.
	GetByID(ctx context.Context, entityID uuid.UUID) (*models.CanonicalEntity, error)

	// GetByIDs returns the entities for the given ids, keyed by id.
	GetByIDs(ctx context.Context, entityIDs []uuid.UUID) (map[uuid.UUID]*models.CanonicalEntity, error)

	// GetByNameAndType performs an exact case-insensitive lookup.
	// Returns (nil, nil) when absent.
	GetByNameAndType(ctx context.Context, name, entityType string) (*models.CanonicalEntity, error)

	// ListByType returns all entities of a type ordered by created_at then
	// id, so fuzzy-match tie-breaks are first-seen deterministic.
	ListByType(ctx context.Context, entityType string) ([]*models.CanonicalEntity, error)

	// Update persists description and metadata changes. Name and type are
	// immutable after creation.
	Update(ctx context.Context, entity *models.CanonicalEntity) error
}

type canonicalEntityRepository struct {
	db *database.DB
}

// NewCanonicalEntityRepository creates a new CanonicalEntityRepository.
func NewCanonicalEntityRepository(db *database.DB) CanonicalEntityRepository {
	return &canonicalEntityRepository{db: db}
}

var _ CanonicalEntityRepository = (*canonicalEntityRepository)(nil)

func (r *canonicalEntityRepository) Create(ctx context.Context, entity *models.CanonicalEntity) error {
	now := time.Now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}
	if entity.Metadata == nil {
		entity.Metadata = map[string]string{}
	}

	query := `
		INSERT INTO canonical_entities (id, name, entity_type, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		entity.ID, entity.Name, entity.EntityType, entity.Description, entity.Metadata,
		entity.CreatedAt, entity.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("canonical entity %q (%s): %w", entity.Name, entity.EntityType, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create canonical entity: %w", err)
	}

	return nil
}

func (r *canonicalEntityRepository) GetByID(ctx context.Context, entityID uuid.UUID) (*models.CanonicalEntity, error) {
	query := `
		SELECT id, name, entity_type, description, metadata, created_at, updated_at
		FROM canonical_entities
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, entityID)
	entity, err := scanCanonicalEntity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return entity, nil
}

func (r *canonicalEntityRepository) GetByIDs(ctx context.Context, entityIDs []uuid.UUID) (map[uuid.UUID]*models.CanonicalEntity, error) {
	result := make(map[uuid.UUID]*models.CanonicalEntity, len(entityIDs))
	if len(entityIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, name, entity_type, description, metadata, created_at, updated_at
		FROM canonical_entities
		WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, entityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical entities by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entity, err := scanCanonicalEntity(rows)
		if err != nil {
			return nil, err
		}
		result[entity.ID] = entity
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating canonical entities: %w", err)
	}

	return result, nil
}

func (r *canonicalEntityRepository) GetByNameAndType(ctx context.Context, name, entityType string) (*models.CanonicalEntity, error) {
	query := `
		SELECT id, name, entity_type, description, metadata, created_at, updated_at
		FROM canonical_entities
		WHERE lower(name) = lower($1) AND entity_type = $2`

	row := r.db.QueryRow(ctx, query, name, entityType)
	entity, err := scanCanonicalEntity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return entity, nil
}

func (r *canonicalEntityRepository) ListByType(ctx context.Context, entityType string) ([]*models.CanonicalEntity, error) {
	query := `
		SELECT id, name, entity_type, description, metadata, created_at, updated_at
		FROM canonical_entities
		WHERE entity_type = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.CanonicalEntity
	for rows.Next() {
		entity, err := scanCanonicalEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating canonical entities: %w", err)
	}

	return entities, nil
}

func (r *canonicalEntityRepository) Update(ctx context.Context, entity *models.CanonicalEntity) error {
	entity.UpdatedAt = time.Now()

	query := `
		UPDATE canonical_entities
		SET description = $2, metadata = $3, updated_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query,
		entity.ID, entity.Description, entity.Metadata, entity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update canonical entity: %w", err)
	}

	return nil
}

func scanCanonicalEntity(row pgx.Row) (*models.CanonicalEntity, error) {
	var e models.CanonicalEntity

	err := row.Scan(
		&e.ID, &e.Name, &e.EntityType, &e.Description, &e.Metadata,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan canonical entity: %w", err)
	}

	return &e, nil
}
