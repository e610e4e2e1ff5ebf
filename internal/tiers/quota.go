package tiers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
)

const (
	trackOwn     = "own"
	trackPartner = "partner"
)

// ValidateQuota rejects a child rate request that exceeds what the
// parent retained for delegation. Both tracks are checked
// independently; a nil requested value skips its track. The check is
// local to the parent edge, which keeps every write O(1) in tree size.
func ValidateQuota(parent *models.TierNode, requestedOwn, requestedPartner *decimal.Decimal) error {
	rates := ResolveRates(parent)

	if err := validateTrack(trackOwn, requestedOwn, rates.Own.Delegated); err != nil {
		return err
	}
	return validateTrack(trackPartner, requestedPartner, rates.Partner.Delegated)
}

// ValidateNodeQuota checks a write candidate against its parent using
// the node's resolved effective discounts. Resolution fills role
// defaults for unset columns, so omitting a rate on write cannot slip
// past the ceiling. Returns the resolved rates for reuse by the caller.
func ValidateNodeQuota(parent, node *models.TierNode) (ResolvedRates, error) {
	rates := ResolveRates(node)
	if err := ValidateQuota(parent, &rates.Own.Discount, &rates.Partner.Discount); err != nil {
		return rates, err
	}
	return rates, nil
}

func validateTrack(track string, requested *decimal.Decimal, ceiling decimal.Decimal) error {
	if requested == nil {
		return nil
	}
	if requested.GreaterThan(ceiling) {
		return pkgerrors.New(
			pkgerrors.CodeQuotaExceeded,
			fmt.Sprintf("requested %s discount %s exceeds the delegation ceiling %s", track, requested.String(), ceiling.String()),
		).WithDetails(map[string]any{
			"track":     track,
			"requested": requested.String(),
			"ceiling":   ceiling.String(),
		})
	}
	return nil
}
