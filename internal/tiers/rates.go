package tiers

import (
	"github.com/shopspring/decimal"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
)

// Historical schema generations left three naming conventions in the
// tier_nodes table. Every consumer goes through ResolveRates; nothing
// else may read the raw rate columns.

var (
	defaultDiscount   = decimal.NewFromInt(60)
	defaultCommission = decimal.Zero
)

// TrackRates holds the effective rates for one rate track.
type TrackRates struct {
	Discount   decimal.Decimal `json:"discount"`
	Commission decimal.Decimal `json:"commission"`
	Delegated  decimal.Decimal `json:"delegated"`
}

// ResolvedRates holds the effective rates for both tracks of one node.
type ResolvedRates struct {
	Own     TrackRates `json:"own"`
	Partner TrackRates `json:"partner"`
}

// trackFields is the ordered-fallback table for one track: the
// current-generation column, its legacy alias, and the role default.
type trackFields struct {
	discount         *decimal.Decimal
	delegated        *decimal.Decimal
	commission       *decimal.Decimal
	legacyDiscount   *decimal.Decimal
	legacyCommission *decimal.Decimal
}

// ResolveRates computes a node's effective rates from its own columns
// only. It is a pure function: ancestor rates never fold into a node's
// own resolution (the quota validator consults ancestors separately).
func ResolveRates(node *models.TierNode) ResolvedRates {
	own := trackFields{
		discount:         node.DiscountRate,
		delegated:        node.DelegatedRate,
		commission:       node.CommissionRate,
		legacyDiscount:   node.LegacyDiscount,
		legacyCommission: node.LegacyCommission,
	}
	partner := trackFields{
		discount:         node.PartnerDiscountRate,
		delegated:        node.PartnerDelegatedRate,
		commission:       node.PartnerCommissionRate,
		legacyDiscount:   node.LegacyPartnerDiscount,
		legacyCommission: node.LegacyPartnerCommission,
	}
	return ResolvedRates{
		Own:     resolveTrack(own),
		Partner: resolveTrack(partner),
	}
}

func resolveTrack(f trackFields) TrackRates {
	discount := resolveRole(f.discount, f.legacyDiscount, defaultDiscount)
	commission := resolveRole(f.commission, f.legacyCommission, defaultCommission)

	return TrackRates{
		Discount:   discount,
		Commission: commission,
		Delegated:  resolveDelegated(f, discount, commission),
	}
}

// resolveRole applies the per-role priority chain: a positive
// current-generation value wins, then the legacy alias, then the default.
func resolveRole(current, legacy *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if current != nil && current.IsPositive() {
		return *current
	}
	if legacy != nil {
		return *legacy
	}
	return fallback
}

// resolveDelegated distinguishes never-migrated records (only legacy
// columns set; derive a ceiling from discount minus commission) from
// records that explicitly delegate nothing (a current-generation zero
// is respected as configured).
func resolveDelegated(f trackFields, discount, commission decimal.Decimal) decimal.Decimal {
	if f.delegated != nil && f.delegated.IsPositive() {
		return *f.delegated
	}
	if hasCurrentGeneration(f) {
		return decimal.Zero
	}
	derived := discount.Sub(commission)
	if derived.IsNegative() {
		return decimal.Zero
	}
	return derived
}

// hasCurrentGeneration reports whether any current-generation column is
// set on the track, including explicit zeros.
func hasCurrentGeneration(f trackFields) bool {
	return f.discount != nil || f.delegated != nil || f.commission != nil
}
