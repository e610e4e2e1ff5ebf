package enums

import "fmt"

// TierStatus tracks whether an authorization still participates in
// resolution and quota accounting.
type TierStatus string

const (
	TierStatusActive  TierStatus = "active"
	TierStatusRevoked TierStatus = "revoked"
)

var validTierStatuses = []TierStatus{
	TierStatusActive,
	TierStatusRevoked,
}

// String implements fmt.Stringer.
func (t TierStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TierStatus.
func (t TierStatus) IsValid() bool {
	for _, candidate := range validTierStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTierStatus converts raw input into a TierStatus.
func ParseTierStatus(value string) (TierStatus, error) {
	for _, candidate := range validTierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier status %q", value)
}
