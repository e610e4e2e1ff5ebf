package enums

import "fmt"

// TierScope defines which slice of the catalog a node's rates apply to.
// The payload (category/product ids) lives on the node; the catalog
// collaborator is the only reader that interprets it.
type TierScope string

const (
	TierScopeAll      TierScope = "all"
	TierScopeCategory TierScope = "category"
	TierScopeSpecific TierScope = "specific"
	TierScopeMixed    TierScope = "mixed"
)

var validTierScopes = []TierScope{
	TierScopeAll,
	TierScopeCategory,
	TierScopeSpecific,
	TierScopeMixed,
}

// String implements fmt.Stringer.
func (t TierScope) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TierScope.
func (t TierScope) IsValid() bool {
	for _, candidate := range validTierScopes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTierScope converts raw input into a TierScope.
func ParseTierScope(value string) (TierScope, error) {
	for _, candidate := range validTierScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier scope %q", value)
}
