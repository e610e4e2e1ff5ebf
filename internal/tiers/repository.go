package tiers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
	dbtypes "github.com/tierforge/tierforge-backend/pkg/db/types"
	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// Repository exposes tier node persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a node regardless of status.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TierNode, error) {
	var node models.TierNode
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListActiveByManufacturer returns the manufacturer's active nodes as a
// flat list ordered by creation time; the forest is rebuilt in memory.
func (r *Repository) ListActiveByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]*models.TierNode, error) {
	var nodes []*models.TierNode
	err := r.db.WithContext(ctx).
		Where("manufacturer_id = ? AND status = ?", manufacturerID, enums.TierStatusActive).
		Order("created_at ASC").
		Order("id ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// Create persists a new node.
func (r *Repository) Create(ctx context.Context, node *models.TierNode) (*models.TierNode, error) {
	if err := r.db.WithContext(ctx).Create(node).Error; err != nil {
		return nil, err
	}
	return node, nil
}

// Save writes every column of an existing node.
func (r *Repository) Save(ctx context.Context, node *models.TierNode) error {
	return r.db.WithContext(ctx).Save(node).Error
}

const subtreeIDsQuery = `
WITH RECURSIVE subtree AS (
  SELECT id FROM tier_nodes WHERE id = ?
  UNION ALL
  SELECT t.id FROM tier_nodes t JOIN subtree s ON t.parent_id = s.id
)
SELECT id FROM subtree
`

// ListSubtreeIDs returns the target id plus every descendant id,
// regardless of status, so a cascade removes revoked records too.
func (r *Repository) ListSubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Raw(subtreeIDsQuery, id).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByIDs removes the given nodes and returns how many rows went away.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.TierNode{})
	return res.RowsAffected, res.Error
}

// AdjustChildCount shifts the cached child counter, clamped at zero.
func (r *Repository) AdjustChildCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.TierNode{}).
		Where("id = ?", id).
		Update("child_count", gorm.Expr("GREATEST(child_count + ?, 0)", delta)).Error
}

// MergeBoundUsers persists the merged bound-user set.
func (r *Repository) MergeBoundUsers(ctx context.Context, id uuid.UUID, merged dbtypes.UUIDArray) error {
	return r.db.WithContext(ctx).
		Model(&models.TierNode{}).
		Where("id = ?", id).
		Update("bound_user_ids", merged).Error
}
