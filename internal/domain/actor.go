package domain

// Role is the access level claimed by the external identity provider.
// The engine trusts the claim and does not re-authenticate.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
	RoleAdmin Role = "ADMIN"
)

// Actor identifies who triggered an engine operation. A nil *Actor means
// the automation sweep acted without a human request.
type Actor struct {
	ID   string
	Role Role
}

// IsAgent reports whether the actor may act on tickets they do not own.
func (a *Actor) IsAgent() bool {
	return a != nil && (a.Role == RoleAgent || a.Role == RoleAdmin)
}
