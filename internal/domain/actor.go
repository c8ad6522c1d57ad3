package domain

type Role string

const (
	RoleShipper   Role = "cus"
	RoleForwarder Role = "fwd"
	RoleAdmin     Role = "admin"
	RolePending   Role = "pending"
	// RoleService identifies trusted collaborators such as the chat service.
	RoleService Role = "service"
)

// Actor is the authenticated caller as supplied by the auth collaborator.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}
