package rbac

// Role constants
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Permission constants
const (
	PermCreateListing    = "create_listing"
	PermContactSeller    = "contact_seller"
	PermModerateListings = "moderate_listings"
	PermManageUsers      = "manage_users"
	PermManageCategories = "manage_categories"
	PermViewAdminStats   = "view_admin_stats"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleUser: {
		PermCreateListing, PermContactSeller,
	},
	RoleModerator: {
		PermCreateListing, PermContactSeller, PermModerateListings,
		// Moderator CANNOT: PermManageUsers, PermManageCategories, PermViewAdminStats
	},
	RoleAdmin: {
		PermCreateListing, PermContactSeller, PermModerateListings,
		PermManageUsers, PermManageCategories, PermViewAdminStats,
	},
}

var roleRank = map[string]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// AtLeast reports whether role ranks at or above min. Unknown roles rank below everything.
func AtLeast(role, min string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	return r >= roleRank[min]
}

// Max returns the higher ranked of two roles.
func Max(a, b string) string {
	if roleRank[b] > roleRank[a] {
		return b
	}
	return a
}
