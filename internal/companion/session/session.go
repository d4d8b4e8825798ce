// Package session resolves what the signed-in viewer is allowed to see
// and do on the active dashboard context.
package session

import (
	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// Capabilities is the full set of role-derived permissions. It is
// recomputed whenever the context or role changes and never stored
// across contexts.
type Capabilities struct {
	// ManageVehicles covers adding, deleting and switching vehicles.
	ManageVehicles bool

	// ManageMembers covers adding and removing members.
	ManageMembers bool

	// EditMembers covers editing existing member records. Kept distinct
	// from ManageMembers to preserve the deployed behavior where FAMILY
	// viewers can still edit records.
	EditMembers bool

	// ViewAlcohol gates the alcohol gauge. FRIEND viewers always see
	// HIDDEN regardless of the reading.
	ViewAlcohol bool

	// DecideRequests covers approving or rejecting car-start requests.
	DecideRequests bool

	// AskStart covers creating a car-start request.
	AskStart bool
}

// Resolve maps a role to its capabilities. Unknown roles get the most
// restricted set.
func Resolve(role model.Role) Capabilities {
	switch role {
	case model.RoleOwner:
		return Capabilities{
			ManageVehicles: true,
			ManageMembers:  true,
			EditMembers:    true,
			ViewAlcohol:    true,
			AskStart:       true,
		}
	case model.RoleFamily:
		return Capabilities{
			EditMembers:    true,
			ViewAlcohol:    true,
			DecideRequests: true,
		}
	case model.RoleFriend:
		return Capabilities{}
	default:
		return Capabilities{}
	}
}
