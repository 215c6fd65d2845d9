package auth

// Role is a coarse permission tag carried in the session token.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Identity is the caller as seen by the client: the external user id and
// the roles embedded in the session token.
type Identity struct {
	ExternalUserID string `json:"external_user_id"`
	Roles          []Role `json:"roles"`
}

// HasAnyRole reports whether the identity holds at least one of allowed.
// Roles do not imply each other.
func (i *Identity) HasAnyRole(allowed []Role) bool {
	if i == nil {
		return false
	}
	for _, want := range allowed {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func identityFromClaims(claims *Claims) *Identity {
	roles := claims.Roles
	if roles == nil {
		roles = []Role{}
	}
	return &Identity{
		ExternalUserID: claims.UserID,
		Roles:          roles,
	}
}
