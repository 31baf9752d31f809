package types

// Role is the access level of a user. L1 is a regular user; L2 and L3 are
// administrators, L3 being the super administrator level.
type Role string

// Roles.
const (
	RoleL1 Role = "L1"
	RoleL2 Role = "L2"
	RoleL3 Role = "L3"
)

var validRoles = map[Role]bool{
	RoleL1: true,
	RoleL2: true,
	RoleL3: true,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return validRoles[r] }

// IsAdmin reports whether r may act on records owned by other users.
func (r Role) IsAdmin() bool { return r == RoleL2 || r == RoleL3 }

// SuperAdminUsername names the account that cannot be deleted, deactivated,
// or demoted.
const SuperAdminUsername = "MLS"

// User is the stored state of an account. PasswordHash never leaves the
// service layer; callers receive AuthUser.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"isActive"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// AuthUser is a User without its password hash.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"isActive"`
}

// Public strips the password hash.
func (u User) Public() AuthUser {
	return AuthUser{ID: u.ID, Username: u.Username, Role: u.Role, IsActive: u.IsActive}
}

// IsSuperAdmin reports whether u is the protected super administrator.
func (u User) IsSuperAdmin() bool { return u.Username == SuperAdminUsername }
