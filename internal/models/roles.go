package models

// Role is the access tier attached to a session.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Profile is the side record that carries a user's role.
type Profile struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
}
