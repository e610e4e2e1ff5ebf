package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Manufacturer owns the budget being delegated. Only display metadata
// and the default discount seed live here; everything else belongs to
// the delegation forest.
type Manufacturer struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	LogoURL         *string         `gorm:"column:logo_url"`
	DefaultDiscount decimal.Decimal `gorm:"column:default_discount;type:numeric(5,2);not null;default:60"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
