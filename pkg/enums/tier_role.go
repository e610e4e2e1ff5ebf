package enums

import "fmt"

// TierRole describes what kind of party holds a tier node. It is
// display metadata only; authority comes from the parent pointer.
type TierRole string

const (
	TierRoleCompany  TierRole = "company"
	TierRoleDesigner TierRole = "designer"
	TierRolePerson   TierRole = "person"
	TierRoleOther    TierRole = "other"
)

var validTierRoles = []TierRole{
	TierRoleCompany,
	TierRoleDesigner,
	TierRolePerson,
	TierRoleOther,
}

// String implements fmt.Stringer.
func (t TierRole) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TierRole.
func (t TierRole) IsValid() bool {
	for _, candidate := range validTierRoles {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTierRole converts raw input into a TierRole.
func ParseTierRole(value string) (TierRole, error) {
	for _, candidate := range validTierRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier role %q", value)
}
