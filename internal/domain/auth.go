package domain

// AdminRole is carried as a claim on operator tokens.
type AdminRole string

const (
	AdminRoleAdmin     AdminRole = "ADMIN"
	AdminRoleModerator AdminRole = "MODERATOR"
)

// Valid reports whether the role is one the service recognizes.
func (r AdminRole) Valid() bool {
	return r == AdminRoleAdmin || r == AdminRoleModerator
}

// Actor identifies the operator performing a mutation.
type Actor struct {
	ID   string
	Role AdminRole
}

// SystemActor is used for scheduled mutations such as the expiry sweep.
var SystemActor = Actor{ID: "system"}
