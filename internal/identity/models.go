// Package identity defines the verified principal model and the provider
// abstraction for credential checks. The gateway never persists identities
// itself; the provider is the source of truth.
package identity

// Role names recognized by the gateway.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleBFFService = "bff_service"
)

// Identity is a verified principal. Immutable per request; the Roles slice is
// a snapshot taken when the identity was established.
type Identity struct {
	ID    string   `json:"userId"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// HasAnyRole reports whether the identity holds at least one of the required
// roles. The any-of semantic is decided here and nowhere else; a handler
// requiring [admin, bff_service] is satisfied by either role alone.
func (i Identity) HasAnyRole(required ...string) bool {
	for _, want := range required {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
