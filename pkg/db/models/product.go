package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the slim catalog projection used to count how many
// sellable items fall inside a tier node's scope.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ManufacturerID uuid.UUID `gorm:"column:manufacturer_id;type:uuid;not null;index"`
	CategoryID     string    `gorm:"column:category_id;not null;index"`
	Sellable       bool      `gorm:"column:sellable;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
