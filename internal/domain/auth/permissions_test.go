package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[Permission]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[Permission]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestEffectivePermissions(t *testing.T) {
	cases := []struct {
		name    string
		role    Role
		granted []Permission
		want    []Permission
	}{
		{name: "admin gets everything", role: RoleAdmin, want: DefaultPermissions},
		{name: "supervisor gets everything", role: RoleSupervisor, want: DefaultPermissions},
		{name: "admin ignores grants", role: RoleAdmin, granted: []Permission{PermCreate}, want: DefaultPermissions},
		{name: "user without grants", role: RoleUser, want: []Permission{}},
		{name: "user grants keep canonical order", role: RoleUser, granted: []Permission{PermViewReports, PermCreate}, want: []Permission{PermCreate, PermViewReports}},
		{name: "user duplicate grants", role: RoleUser, granted: []Permission{PermDelete, PermDelete}, want: []Permission{PermDelete}},
		{name: "unknown grant dropped", role: RoleUser, granted: []Permission{"approve", PermUpdate}, want: []Permission{PermUpdate}},
		{name: "unknown role", role: Role("guest"), granted: []Permission{PermCreate}, want: []Permission{}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := EffectivePermissions(tc.role, tc.granted)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Supervisor ")
	if err != nil || role != RoleSupervisor {
		t.Fatalf("expected supervisor, got %q (%v)", role, err)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParsePermission(t *testing.T) {
	perm, err := ParsePermission("VIEW_REPORTS")
	if err != nil || perm != PermViewReports {
		t.Fatalf("expected view_reports, got %q (%v)", perm, err)
	}
	if _, err := ParsePermission("export"); err == nil {
		t.Fatal("expected error for unknown permission")
	}
}
