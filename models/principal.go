package models

type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleMerchant  Role = "merchant"
	RoleAnonymous Role = "anonymous"
)

// Principal is the resolved caller identity, passed explicitly into every
// service operation. EntityID is the organizer or merchant id the caller
// owns; empty for anonymous callers.
type Principal struct {
	Role     Role   `json:"role"`
	EntityID string `json:"entityId"`
}

func (p Principal) IsOrganizer() bool { return p.Role == RoleOrganizer }
func (p Principal) IsMerchant() bool  { return p.Role == RoleMerchant }
