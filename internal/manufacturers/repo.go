package manufacturers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
)

// Repository exposes manufacturer profile lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a manufacturer's display metadata and default discount.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	var manufacturer models.Manufacturer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&manufacturer).Error
	if err != nil {
		return nil, err
	}
	return &manufacturer, nil
}
