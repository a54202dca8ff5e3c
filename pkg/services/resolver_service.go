package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/newslens-inc/newslens-engine/pkg/apperrors"
	"github.com/newslens-inc/newslens-engine/pkg/models"
	"github.com/newslens-inc/newslens-engine/pkg/repositories"
)

// DefaultSimilarityThreshold is the minimum name-similarity ratio for a
// mention to resolve to an existing canonical entity.
const DefaultSimilarityThreshold = 0.85

// ResolverService maps a raw mention to a canonical entity, creating one
// when no sufficiently similar match exists. Resolve never returns a nil
// entity together with a nil error.
type ResolverService interface {
	Resolve(ctx context.Context, mentionText, entityType string) (*models.CanonicalEntity, error)
}

type resolverService struct {
	entityRepo repositories.CanonicalEntityRepository
	threshold  float64
	logger     *zap.Logger
}

// NewResolverService creates a new ResolverService. A non-positive
// threshold falls back to DefaultSimilarityThreshold.
func NewResolverService(
	entityRepo repositories.CanonicalEntityRepository,
	threshold float64,
	logger *zap.Logger,
) ResolverService {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &resolverService{
		entityRepo: entityRepo,
		threshold:  threshold,
		logger:     logger.Named("entity-resolver"),
	}
}

var _ ResolverService = (*resolverService)(nil)

// entityTypeAliases maps extractor type labels (already lowercased and
// singularized) to the canonical type set.
var entityTypeAliases = map[string]string{
	"per":          models.EntityTypePerson,
	"individual":   models.EntityTypePerson,
	"org":          models.EntityTypeOrganization,
	"company":      models.EntityTypeOrganization,
	"institution":  models.EntityTypeOrganization,
	"loc":          models.EntityTypeLocation,
	"gpe":          models.EntityTypeLocation,
	"place":        models.EntityTypeLocation,
	"city":         models.EntityTypeLocation,
	"country":      models.EntityTypeLocation,
	"geopolitical": models.EntityTypeLocation,
}

// NormalizeEntityType folds an extractor's free-form type label
// ("People", "ORG", "cities") onto the canonical type vocabulary.
// Unknown labels pass through lowercased and singularized.
func NormalizeEntityType(label string) string {
	normalized := inflection.Singular(strings.ToLower(strings.TrimSpace(label)))
	if canonical, ok := entityTypeAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// similarityRatio computes a normalized Levenshtein similarity in [0, 1]
// over case-folded names: 1 - distance/max(len). Identical strings score
// 1; fully disjoint strings score 0.
func similarityRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}

	distance := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// Resolve maps mention text and type to a canonical entity:
//  1. exact case-insensitive name+type lookup;
//  2. best fuzzy match over all entities of the type, accepted when its
//     ratio is at or above the threshold (inclusive boundary), ties going
//     to the first-seen entity;
//  3. otherwise a new entity is created from the mention text.
//
// A create that loses a concurrent race (unique violation) is reconciled
// by re-running the exact lookup once.
func (s *resolverService) Resolve(ctx context.Context, mentionText, entityType string) (*models.CanonicalEntity, error) {
	name := strings.TrimSpace(mentionText)
	if name == "" {
		return nil, fmt.Errorf("mention text is empty")
	}
	normalizedType := NormalizeEntityType(entityType)

	existing, err := s.entityRepo.GetByNameAndType(ctx, name, normalizedType)
	if err != nil {
		return nil, fmt.Errorf("exact lookup: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	candidates, err := s.entityRepo.ListByType(ctx, normalizedType)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	// Candidates arrive ordered first-seen; a strict > comparison keeps
	// the earliest candidate on ratio ties.
	var best *models.CanonicalEntity
	bestRatio := 0.0
	for _, candidate := range candidates {
		if ratio := similarityRatio(name, candidate.Name); ratio > bestRatio {
			best = candidate
			bestRatio = ratio
		}
	}

	if best != nil && bestRatio >= s.threshold {
		s.logger.Debug("Fuzzy-matched mention to canonical entity",
			zap.String("mention", name),
			zap.String("canonical_name", best.Name),
			zap.String("entity_type", normalizedType),
			zap.Float64("ratio", bestRatio))
		return best, nil
	}

	entity := &models.CanonicalEntity{
		Name:       name,
		EntityType: normalizedType,
	}
	if err := s.entityRepo.Create(ctx, entity); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.reconcileCreateRace(ctx, name, normalizedType)
		}
		return nil, fmt.Errorf("create canonical entity: %w", err)
	}

	s.logger.Info("Created canonical entity",
		zap.String("entity_id", entity.ID.String()),
		zap.String("name", name),
		zap.String("entity_type", normalizedType))

	return entity, nil
}

// reconcileCreateRace recovers from a lost concurrent create: the winning
// resolver's row is fetched and reused. One retry only; a second miss
// means the winning transaction rolled back, and the conflict is
// surfaced for the caller's retry policy.
func (s *resolverService) reconcileCreateRace(ctx context.Context, name, entityType string) (*models.CanonicalEntity, error) {
	winner, err := s.entityRepo.GetByNameAndType(ctx, name, entityType)
	if err != nil {
		return nil, fmt.Errorf("lookup after create conflict: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("create conflict for %q (%s) but no row found on retry: %w",
			name, entityType, apperrors.ErrConflict)
	}

	s.logger.Debug("Reused concurrently created canonical entity",
		zap.String("entity_id", winner.ID.String()),
		zap.String("name", name))

	return winner, nil
}
