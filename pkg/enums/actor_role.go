package enums

import "fmt"

// ActorRole is the platform-level role carried in the access token.
type ActorRole string

const (
	ActorRolePlatformAdmin     ActorRole = "platform_admin"
	ActorRoleManufacturerAdmin ActorRole = "manufacturer_admin"
	ActorRoleMember            ActorRole = "member"
)

var validActorRoles = []ActorRole{
	ActorRolePlatformAdmin,
	ActorRoleManufacturerAdmin,
	ActorRoleMember,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
