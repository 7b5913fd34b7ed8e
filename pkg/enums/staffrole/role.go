package staffrole

import "strings"

type Role struct {
	Name string
}

func (r Role) Code() string {
	return r.Name
}

type Enum struct {
	Waiter  Role
	Kitchen Role
	Manager Role
}

var Roles = Enum{
	Waiter:  Role{Name: "waiter"},
	Kitchen: Role{Name: "kitchen"},
	Manager: Role{Name: "manager"},
}

var All = []Role{
	Roles.Waiter,
	Roles.Kitchen,
	Roles.Manager,
}

// ByName returns the role for a given name, or nil if not found.
func ByName(name string) *Role {
	for _, r := range All {
		if r.Name == strings.ToLower(name) {
			return &r
		}
	}
	return nil
}
