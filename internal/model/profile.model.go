package model

type ProfileRole string

const (
	RoleCustomer   ProfileRole = "customer"
	RoleAdmin      ProfileRole = "admin"
	RoleSuperAdmin ProfileRole = "super_admin"
	RoleHelpdesk   ProfileRole = "helpdesk"
	RoleVendor     ProfileRole = "vendor"
	RoleDriver     ProfileRole = "driver"
)

// Profile is read-only collaborator state: identity, role and the opt-in
// flags this subsystem honors before sending anything.
type Profile struct {
	ID                   int64       `json:"id"`
	Role                 ProfileRole `json:"role"`
	Email                string      `json:"email"`
	PushEnabled          bool        `json:"push_enabled"`
	DeliveryEmailEnabled bool        `json:"delivery_email_enabled"`
}

// Staff reports whether the profile belongs to the admin notification pool.
func (p *Profile) Staff() bool {
	switch p.Role {
	case RoleAdmin, RoleSuperAdmin, RoleHelpdesk:
		return true
	}
	return false
}
