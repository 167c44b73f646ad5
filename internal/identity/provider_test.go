package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "keygate/pkg/domain-errors"
)

func TestSimulatedProvider_AdminDomainGetsAdminRole(t *testing.T) {
	p := NewSimulatedProvider("admin.com")

	id, err := p.Register(context.Background(), "alice@admin.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleUser, RoleAdmin}, id.Roles)
}

func TestSimulatedProvider_RegularDomainGetsUserOnly(t *testing.T) {
	p := NewSimulatedProvider("admin.com")

	id, err := p.Register(context.Background(), "bob@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleUser}, id.Roles)
}

func TestSimulatedProvider_StableUserID(t *testing.T) {
	p := NewSimulatedProvider("admin.com")

	first, err := p.Register(context.Background(), "carol@example.com", "password123")
	require.NoError(t, err)
	second, err := p.Login(context.Background(), "Carol@Example.com", "different-pass")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same email must resolve to the same principal")
	assert.Contains(t, first.ID, "usr_")
}

func TestSimulatedProvider_RejectsBadCredentialShape(t *testing.T) {
	p := NewSimulatedProvider("admin.com")

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "password123"},
		{"email without at sign", "not-an-email", "password123"},
		{"short password", "dave@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Register(context.Background(), tc.email, tc.password)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))

			_, err = p.Login(context.Background(), tc.email, tc.password)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
		})
	}
}

func TestRolesFor_CaseInsensitiveDomainMatch(t *testing.T) {
	assert.Contains(t, RolesFor("Eve@ADMIN.COM", "admin.com"), RoleAdmin)
	assert.NotContains(t, RolesFor("eve@notadmin.com", "admin.com"), RoleAdmin)
	assert.NotContains(t, RolesFor("eve@admin.com", ""), RoleAdmin)
}

func TestIdentityHasAnyRole(t *testing.T) {
	id := Identity{Roles: []string{RoleUser, RoleBFFService}}

	assert.True(t, id.HasAnyRole(RoleBFFService))
	assert.True(t, id.HasAnyRole(RoleAdmin, RoleBFFService), "one matching role is enough")
	assert.False(t, id.HasAnyRole(RoleAdmin))
	assert.False(t, id.HasAnyRole())
}

func TestStoreProvider_RegisterAndLogin(t *testing.T) {
	p := NewStoreProvider(NewInMemoryUserStore(), "admin.com")
	ctx := context.Background()

	registered, err := p.Register(ctx, "frank@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "frank@example.com", registered.Email)
	assert.Equal(t, []string{RoleUser}, registered.Roles)

	loggedIn, err := p.Login(ctx, "frank@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
}

func TestStoreProvider_DuplicateEmail(t *testing.T) {
	p := NewStoreProvider(NewInMemoryUserStore(), "admin.com")
	ctx := context.Background()

	_, err := p.Register(ctx, "grace@example.com", "password123")
	require.NoError(t, err)

	_, err = p.Register(ctx, "grace@example.com", "otherpassword")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
}

func TestStoreProvider_WrongPassword(t *testing.T) {
	p := NewStoreProvider(NewInMemoryUserStore(), "admin.com")
	ctx := context.Background()

	_, err := p.Register(ctx, "heidi@example.com", "password123")
	require.NoError(t, err)

	_, err = p.Login(ctx, "heidi@example.com", "wrongpassword")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
}

func TestStoreProvider_UnknownEmail(t *testing.T) {
	p := NewStoreProvider(NewInMemoryUserStore(), "admin.com")

	_, err := p.Login(context.Background(), "nobody@example.com", "password123")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
}

func TestStoreProvider_NeverStoresPlaintext(t *testing.T) {
	store := NewInMemoryUserStore()
	p := NewStoreProvider(store, "admin.com")
	ctx := context.Background()

	_, err := p.Register(ctx, "ivan@example.com", "password123")
	require.NoError(t, err)

	record, err := store.FindByEmail(ctx, "ivan@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, record.PasswordHash)
	assert.NotContains(t, record.PasswordHash, "password123")
}
