package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/tierforge/tierforge-backend/pkg/db/types"
	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// TierNode is one authorization record in a manufacturer's delegation
// forest. Rate columns exist in three generations: the current *_rate
// fields, and the legacy_* aliases written by earlier schema versions.
// Nobody reads these columns directly; resolution goes through the
// tiers package, which reconciles the generations.
type TierNode struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ManufacturerID uuid.UUID  `gorm:"column:manufacturer_id;type:uuid;not null;index"`
	ParentID       *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	CompanyID      *uuid.UUID `gorm:"column:company_id;type:uuid"`
	CompanyName    *string    `gorm:"column:company_name"`

	// Level mirrors the depth implied by parent_id for display; the
	// parent pointer stays authoritative.
	Level       int            `gorm:"column:level;not null;default:0"`
	DisplayName string         `gorm:"column:display_name;not null"`
	Role        enums.TierRole `gorm:"column:role;type:tier_role;not null"`

	DiscountRate   *decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,2)"`
	DelegatedRate  *decimal.Decimal `gorm:"column:delegated_rate;type:numeric(5,2)"`
	CommissionRate *decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2)"`

	LegacyDiscount   *decimal.Decimal `gorm:"column:legacy_discount;type:numeric(5,2)"`
	LegacyCommission *decimal.Decimal `gorm:"column:legacy_commission;type:numeric(5,2)"`

	PartnerDiscountRate   *decimal.Decimal `gorm:"column:partner_discount_rate;type:numeric(5,2)"`
	PartnerDelegatedRate  *decimal.Decimal `gorm:"column:partner_delegated_rate;type:numeric(5,2)"`
	PartnerCommissionRate *decimal.Decimal `gorm:"column:partner_commission_rate;type:numeric(5,2)"`

	LegacyPartnerDiscount   *decimal.Decimal `gorm:"column:legacy_partner_discount;type:numeric(5,2)"`
	LegacyPartnerCommission *decimal.Decimal `gorm:"column:legacy_partner_commission;type:numeric(5,2)"`

	AllowSubAuthorization bool `gorm:"column:allow_sub_authorization;not null;default:false"`

	Scope       enums.TierScope   `gorm:"column:scope;type:tier_scope;not null;default:'all'"`
	CategoryIDs pq.StringArray    `gorm:"column:category_ids;type:text[];not null;default:ARRAY[]::text[]"`
	ProductIDs  dbtypes.UUIDArray `gorm:"column:product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`

	BoundUserIDs dbtypes.UUIDArray `gorm:"column:bound_user_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`

	ChildCount int              `gorm:"column:child_count;not null;default:0"`
	Status     enums.TierStatus `gorm:"column:status;type:tier_status;not null;default:'active'"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
