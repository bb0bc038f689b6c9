package rbac

// Participants are anonymous and never hold a token; every permission
// below gates an admin surface.
var RolePermissions = map[string][]string{
	"analyst": {
		"session:list",
		"session:view-all",
		"prescription:list",
	},
	"admin": {
		"*", // everything
	},
}
