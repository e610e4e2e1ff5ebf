package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID          uuid.UUID
	Role            enums.ActorRole
	ManufacturerIDs []uuid.UUID
	JTI             string
}

// AccessTokenClaims represents the typed JWT issued to clients. A
// manufacturer_admin carries the manufacturers it administers; a
// platform_admin carries none and passes every ownership check.
type AccessTokenClaims struct {
	UserID          uuid.UUID       `json:"user_id"`
	Role            enums.ActorRole `json:"role"`
	ManufacturerIDs []uuid.UUID     `json:"manufacturer_ids,omitempty"`
	jwt.RegisteredClaims
}

// AdministersManufacturer reports whether the claims grant admin rights
// over the given manufacturer.
func (c *AccessTokenClaims) AdministersManufacturer(manufacturerID uuid.UUID) bool {
	if c == nil {
		return false
	}
	if c.Role == enums.ActorRolePlatformAdmin {
		return true
	}
	if c.Role != enums.ActorRoleManufacturerAdmin {
		return false
	}
	for _, id := range c.ManufacturerIDs {
		if id == manufacturerID {
			return true
		}
	}
	return false
}
