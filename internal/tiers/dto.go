package tiers

import (
	"time"

	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// BoundUserDTO is the display projection for a user attached to a node.
type BoundUserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// TierNodeDTO is the transport shape for one resolved node. Virtual is
// true only on a synthesized manufacturer-level root, which carries a
// zero ID and is never persisted.
type TierNodeDTO struct {
	ID             uuid.UUID       `json:"id"`
	Virtual        bool            `json:"virtual,omitempty"`
	ManufacturerID uuid.UUID       `json:"manufacturer_id"`
	ParentID       *uuid.UUID      `json:"parent_id,omitempty"`
	CompanyID      uuid.UUID       `json:"company_id"`
	CompanyName    *string         `json:"company_name,omitempty"`
	Level          int             `json:"level"`
	DisplayName    string          `json:"display_name"`
	Role           enums.TierRole  `json:"role"`
	Rates          ResolvedRates   `json:"rates"`
	AllowSubAuth   bool            `json:"allow_sub_authorization"`
	Scope          enums.TierScope `json:"scope"`
	CategoryIDs    []string        `json:"category_ids,omitempty"`
	ProductIDs     []uuid.UUID     `json:"product_ids,omitempty"`
	BoundUsers     []BoundUserDTO  `json:"bound_users,omitempty"`
	ChildCount     int             `json:"child_count"`
	ProductCount   int             `json:"product_count"`
	Status         enums.TierStatus `json:"status"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Children []*TierNodeDTO `json:"children,omitempty"`
}

// HierarchyDTO is the full response for a hierarchy read: the resolved
// root (real or virtual) with nested children, plus the flat node list.
type HierarchyDTO struct {
	ManufacturerID uuid.UUID      `json:"manufacturer_id"`
	Root           *TierNodeDTO   `json:"root"`
	Nodes          []*TierNodeDTO `json:"nodes"`
}

// nodeToDTO maps a persisted record plus its resolved values into the
// transport shape. Child count comes from the forest, not the cached
// column, so the read path never shows a stale counter.
func nodeToDTO(node *models.TierNode, companyID uuid.UUID, childCount int) *TierNodeDTO {
	return &TierNodeDTO{
		ID:             node.ID,
		ManufacturerID: node.ManufacturerID,
		ParentID:       copyUUIDPointer(node.ParentID),
		CompanyID:      companyID,
		CompanyName:    copyStringPointer(node.CompanyName),
		Level:          node.Level,
		DisplayName:    node.DisplayName,
		Role:           node.Role,
		Rates:          ResolveRates(node),
		AllowSubAuth:   node.AllowSubAuthorization,
		Scope:          node.Scope,
		CategoryIDs:    append([]string(nil), node.CategoryIDs...),
		ProductIDs:     append([]uuid.UUID(nil), node.ProductIDs...),
		ChildCount:     childCount,
		Status:         node.Status,
		CreatedBy:      node.CreatedBy,
		CreatedAt:      node.CreatedAt,
		UpdatedAt:      node.UpdatedAt,
	}
}

func copyUUIDPointer(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}

func copyStringPointer(src *string) *string {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}
