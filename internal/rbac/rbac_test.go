package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role     string
		perm     string
		expected bool
	}{
		{RoleUser, PermCreateListing, true},
		{RoleUser, PermModerateListings, false},
		{RoleModerator, PermModerateListings, true},
		{RoleModerator, PermManageUsers, false},
		{RoleModerator, PermManageCategories, false},
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermViewAdminStats, true},
		{"ghost", PermCreateListing, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.perm, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.expected)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	if !AtLeast(RoleAdmin, RoleModerator) {
		t.Error("admin must rank at least moderator")
	}
	if AtLeast(RoleUser, RoleModerator) {
		t.Error("user must rank below moderator")
	}
	if AtLeast("", RoleUser) {
		t.Error("unknown role must rank below user")
	}
}

func TestMax(t *testing.T) {
	if got := Max(RoleUser, RoleAdmin); got != RoleAdmin {
		t.Errorf("Max(user, admin) = %q", got)
	}
	if got := Max(RoleModerator, RoleUser); got != RoleModerator {
		t.Errorf("Max(moderator, user) = %q", got)
	}
}

func TestEveryRoleHasPermissions(t *testing.T) {
	for role := range roleRank {
		if len(RolePermissions[role]) == 0 {
			t.Errorf("role %q has no permissions", role)
		}
	}
}
