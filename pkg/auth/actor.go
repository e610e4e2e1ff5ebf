package auth

import (
	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// Actor is the request-scoped principal derived from verified claims.
type Actor struct {
	UserID          uuid.UUID
	Role            enums.ActorRole
	ManufacturerIDs []uuid.UUID
}

// ActorFromClaims projects verified token claims into an Actor.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:          claims.UserID,
		Role:            claims.Role,
		ManufacturerIDs: append([]uuid.UUID(nil), claims.ManufacturerIDs...),
	}
}

// AdministersManufacturer reports whether the actor has admin rights
// over the given manufacturer.
func (a Actor) AdministersManufacturer(manufacturerID uuid.UUID) bool {
	if a.Role == enums.ActorRolePlatformAdmin {
		return true
	}
	if a.Role != enums.ActorRoleManufacturerAdmin {
		return false
	}
	for _, id := range a.ManufacturerIDs {
		if id == manufacturerID {
			return true
		}
	}
	return false
}
