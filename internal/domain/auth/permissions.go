package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleUser       Role = "user"
)

type Permission string

const (
	PermCreate      Permission = "create"
	PermUpdate      Permission = "update"
	PermDelete      Permission = "delete"
	PermViewReports Permission = "view_reports"
)

var DefaultPermissions = []Permission{
	PermCreate,
	PermUpdate,
	PermDelete,
	PermViewReports,
}

// RolePermissions lists what a role grants on its own. RoleUser grants
// nothing by itself; its permissions come from the user's explicit grants.
var RolePermissions = map[Role][]Permission{
	RoleAdmin:      DefaultPermissions,
	RoleSupervisor: DefaultPermissions,
	RoleUser:       {},
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := RolePermissions[role]; !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

func ParsePermission(raw string) (Permission, error) {
	perm := Permission(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range DefaultPermissions {
		if perm == known {
			return perm, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", raw)
}

// EffectivePermissions is the full permission set of an actor with the given
// role and explicit grants, in DefaultPermissions order. Unknown grants are
// dropped.
func EffectivePermissions(role Role, granted []Permission) []Permission {
	set := map[Permission]struct{}{}
	for _, perm := range RolePermissions[role] {
		set[perm] = struct{}{}
	}
	if role == RoleUser {
		for _, perm := range granted {
			set[perm] = struct{}{}
		}
	}
	out := make([]Permission, 0, len(set))
	for _, perm := range DefaultPermissions {
		if _, ok := set[perm]; ok {
			out = append(out, perm)
		}
	}
	return out
}
