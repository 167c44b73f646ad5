package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	dErrors "keygate/pkg/domain-errors"
)

const minPasswordLength = 8

// Provider abstracts the external credential check. Both operations return a
// verified Identity or an AUTHENTICATION_FAILED domain error; they never
// return partial identities.
type Provider interface {
	Register(ctx context.Context, email, password string) (*Identity, error)
	Login(ctx context.Context, email, password string) (*Identity, error)
}

// SimulatedProvider performs shape checks only and assigns roles
// deterministically: emails under the reserved admin domain get the admin
// role in addition to user. It stands in for a real credential backend and is
// swappable without touching the token service or vault.
type SimulatedProvider struct {
	adminDomain string
}

// NewSimulatedProvider constructs a provider that grants admin to emails
// under the given domain suffix (e.g. "admin.com").
func NewSimulatedProvider(adminDomain string) *SimulatedProvider {
	return &SimulatedProvider{adminDomain: adminDomain}
}

func (p *SimulatedProvider) Register(_ context.Context, email, password string) (*Identity, error) {
	if err := checkCredentialShape(email, password); err != nil {
		return nil, err
	}
	return p.identityFor(email), nil
}

func (p *SimulatedProvider) Login(_ context.Context, email, password string) (*Identity, error) {
	if err := checkCredentialShape(email, password); err != nil {
		return nil, err
	}
	return p.identityFor(email), nil
}

func (p *SimulatedProvider) identityFor(email string) *Identity {
	return &Identity{
		ID:    UserIDFor(email),
		Email: email,
		Roles: RolesFor(email, p.adminDomain),
	}
}

// UserIDFor derives a stable user ID from an email address so repeated
// logins resolve to the same principal without a user store.
func UserIDFor(email string) string {
	return "usr_" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.ToLower(email))).String()
}

// RolesFor returns the role snapshot assigned at registration time.
func RolesFor(email, adminDomain string) []string {
	roles := []string{RoleUser}
	if adminDomain != "" && strings.HasSuffix(strings.ToLower(email), "@"+adminDomain) {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

func checkCredentialShape(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeAuthenticationFailed, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeAuthenticationFailed,
			"password must be at least %d characters", minPasswordLength)
	}
	return nil
}
