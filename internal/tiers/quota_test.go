package tiers

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
)

func TestValidateQuotaRejectsAboveCeiling(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:  dec(40),
		DelegatedRate: dec(15),
	}

	err := ValidateQuota(parent, dec(20), nil)
	if err == nil {
		t.Fatal("expected quota error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota exceeded code, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["ceiling"] != "15" {
		t.Fatalf("expected ceiling 15 in details, got %v", details["ceiling"])
	}
	if details["track"] != "own" {
		t.Fatalf("expected own track, got %v", details["track"])
	}
}

func TestValidateQuotaAllowsAtCeiling(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:  dec(40),
		DelegatedRate: dec(15),
	}

	if err := ValidateQuota(parent, dec(15), nil); err != nil {
		t.Fatalf("expected request at ceiling to pass, got %v", err)
	}
}

func TestValidateQuotaChecksPartnerTrackIndependently(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:         dec(50),
		DelegatedRate:        dec(40),
		PartnerDiscountRate:  dec(30),
		PartnerDelegatedRate: dec(10),
	}

	// Own track fine, partner track over its own ceiling.
	err := ValidateQuota(parent, dec(35), dec(12))
	if err == nil {
		t.Fatal("expected partner quota error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota exceeded code, got %v", err)
	}
	details := typed.Details().(map[string]any)
	if details["track"] != "partner" {
		t.Fatalf("expected partner track rejection, got %v", details["track"])
	}
}

func TestValidateQuotaSkipsNilRequests(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:  dec(10),
		DelegatedRate: dec(0),
	}

	if err := ValidateQuota(parent, nil, nil); err != nil {
		t.Fatalf("expected nil requests to pass, got %v", err)
	}
}

func TestValidateNodeQuotaRejectsOmittedRates(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:  dec(40),
		DelegatedRate: dec(15),
	}
	// No rate columns set: the child's effective own discount resolves
	// to the 60 default, which is above the parent's ceiling of 15.
	node := &models.TierNode{}

	_, err := ValidateNodeQuota(parent, node)
	if err == nil {
		t.Fatal("expected quota error for omitted rates")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuotaExceeded {
		t.Fatalf("expected quota exceeded code, got %v", err)
	}
	details := typed.Details().(map[string]any)
	if details["track"] != "own" {
		t.Fatalf("expected own track rejection, got %v", details["track"])
	}
	if details["ceiling"] != "15" {
		t.Fatalf("expected ceiling 15 in details, got %v", details["ceiling"])
	}
}

func TestValidateNodeQuotaAllowsResolvedWithinCeiling(t *testing.T) {
	parent := &models.TierNode{
		DiscountRate:  dec(40),
		DelegatedRate: dec(15),
	}
	node := &models.TierNode{
		DiscountRate: dec(10),
	}

	rates, err := ValidateNodeQuota(parent, node)
	if err != nil {
		t.Fatalf("expected resolved discount within ceiling to pass, got %v", err)
	}
	if !rates.Own.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected resolved own discount 10, got %s", rates.Own.Discount)
	}
}

func TestValidateQuotaUsesDerivedLegacyCeiling(t *testing.T) {
	parent := &models.TierNode{
		LegacyDiscount:   dec(70),
		LegacyCommission: dec(20),
	}

	// Derived delegated ceiling is 50.
	if err := ValidateQuota(parent, dec(50), nil); err != nil {
		t.Fatalf("expected request at derived ceiling to pass, got %v", err)
	}
	if err := ValidateQuota(parent, dec(51), nil); err == nil {
		t.Fatal("expected request above derived ceiling to fail")
	}
}
