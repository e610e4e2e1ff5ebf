package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// Repository answers catalog size questions for tier scopes. The
// catalog itself is managed elsewhere; this is a read-only projection.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountByScope counts the sellable products a tier scope covers.
func (r *Repository) CountByScope(ctx context.Context, manufacturerID uuid.UUID, scope enums.TierScope, categoryIDs []string, productIDs []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("manufacturer_id = ? AND sellable = ?", manufacturerID, true)

	switch scope {
	case enums.TierScopeAll:
		// No further filter.
	case enums.TierScopeCategory:
		if len(categoryIDs) == 0 {
			return 0, nil
		}
		query = query.Where("category_id IN ?", categoryIDs)
	case enums.TierScopeSpecific:
		if len(productIDs) == 0 {
			return 0, nil
		}
		query = query.Where("id IN ?", productIDs)
	case enums.TierScopeMixed:
		if len(categoryIDs) == 0 && len(productIDs) == 0 {
			return 0, nil
		}
		switch {
		case len(categoryIDs) == 0:
			query = query.Where("id IN ?", productIDs)
		case len(productIDs) == 0:
			query = query.Where("category_id IN ?", categoryIDs)
		default:
			query = query.Where("category_id IN ? OR id IN ?", categoryIDs, productIDs)
		}
	default:
		return 0, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
