package access

import (
	"time"

	"github.com/google/uuid"
)

// Override grants or denies one team member access to one plugin of the
// member's owner. Overrides only restrict: they never grant access the
// owner's own subscription does not provide.
type Override struct {
	MemberID  uuid.UUID `json:"member_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	PluginID  uuid.UUID `json:"plugin_id"`
	CanAccess bool      `json:"can_access"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Grant is one entry of a bulk override update.
type Grant struct {
	PluginID  uuid.UUID `json:"plugin_id"`
	CanAccess bool      `json:"can_access"`
}
