package rbac

// Role names. Keep these stable; they are stored on team members and carried in access tokens.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether role may use mutating verbs.
func CanWrite(role string) bool { return role == RoleAdmin || role == RoleMember }
