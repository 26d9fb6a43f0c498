package enums

// RoleID mirrors users.role_id in the backing store.
type RoleID int

const (
	RoleMember  RoleID = 1
	RoleCreator RoleID = 2
	RoleAdmin   RoleID = 3
)

func (r RoleID) CanCreate() bool {
	return r == RoleCreator || r == RoleAdmin
}

func (r RoleID) Elevated() bool {
	return r == RoleAdmin
}
