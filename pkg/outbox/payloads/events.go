package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/enums"
)

// TierNodeCreatedEvent is emitted when a new delegation record is added
// to a manufacturer's hierarchy.
type TierNodeCreatedEvent struct {
	NodeID         uuid.UUID       `json:"nodeId"`
	ManufacturerID uuid.UUID       `json:"manufacturerId"`
	ParentID       *uuid.UUID      `json:"parentId,omitempty"`
	DisplayName    string          `json:"displayName"`
	Role           enums.TierRole  `json:"role"`
	Scope          enums.TierScope `json:"scope"`
	Level          int             `json:"level"`
}

// TierNodeUpdatedEvent carries the fields that changed on an existing node.
type TierNodeUpdatedEvent struct {
	NodeID         uuid.UUID `json:"nodeId"`
	ManufacturerID uuid.UUID `json:"manufacturerId"`
	ChangedFields  []string  `json:"changedFields"`
}

// TierNodeDeletedEvent reports a subtree removal, including how many
// descendant records were cascaded.
type TierNodeDeletedEvent struct {
	NodeID         uuid.UUID `json:"nodeId"`
	ManufacturerID uuid.UUID `json:"manufacturerId"`
	RemovedCount   int       `json:"removedCount"`
	DeletedAt      time.Time `json:"deletedAt"`
}

// TierUsersBoundEvent is emitted when user accounts are attached to a node.
type TierUsersBoundEvent struct {
	NodeID         uuid.UUID   `json:"nodeId"`
	ManufacturerID uuid.UUID   `json:"manufacturerId"`
	BoundUserIDs   []uuid.UUID `json:"boundUserIds"`
	TotalBound     int         `json:"totalBound"`
}
