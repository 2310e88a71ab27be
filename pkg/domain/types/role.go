package types

// Role is the application role of a user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
