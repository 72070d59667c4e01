// internal/model/role.go
package model

type Role string

const (
	RoleLurker Role = "lurker"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// roleLevels orders roles for minimum-role gating. Reconciliation decisions
// never compare roles, only authorization checks do.
var roleLevels = map[Role]int{
	RoleLurker: 0,
	RoleEditor: 1,
	RoleAdmin:  2,
}

func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return roleLevels[r] >= roleLevels[min]
}
