package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/auth/store/revocation"
	"keygate/internal/identity"
	"keygate/internal/token"
	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/testutil"
)

func newVerifier(accessTTL time.Duration) *token.Service {
	return token.NewService(token.Config{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   "test-audience",
		AccessTTL:  accessTTL,
	})
}

func okHandler(captured *identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			id, _ := GetIdentity(r.Context())
			*captured = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	verifier := newVerifier(time.Hour)
	id := identity.Identity{ID: "usr_1", Email: "a@example.com", Roles: []string{identity.RoleUser}}
	tokenString, err := verifier.MintAccessToken(id)
	require.NoError(t, err)

	var seen identity.Identity
	handler := RequireAuth(verifier, revocation.NewInMemoryList(), testutil.Logger())(okHandler(&seen))

	req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/protected"), tokenString)
	rr := testutil.DoRequest(handler, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, id, seen, "identity must be attached to the request context")
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler := RequireAuth(newVerifier(time.Hour), nil, testutil.Logger())(okHandler(nil))

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/protected"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeAuthenticationFailed))
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	handler := RequireAuth(newVerifier(time.Hour), nil, testutil.Logger())(okHandler(nil))

	req := testutil.NewRequest(t, http.MethodGet, "/protected")
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := testutil.DoRequest(handler, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeAuthenticationFailed))
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	handler := RequireAuth(newVerifier(time.Hour), nil, testutil.Logger())(okHandler(nil))

	req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/protected"), "garbage")
	rr := testutil.DoRequest(handler, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeInvalidToken))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := newVerifier(-time.Hour)
	tokenString, err := expired.MintAccessToken(identity.Identity{ID: "usr_1"})
	require.NoError(t, err)

	handler := RequireAuth(expired, nil, testutil.Logger())(okHandler(nil))
	req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/protected"), tokenString)
	rr := testutil.DoRequest(handler, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeTokenExpired))
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	verifier := newVerifier(time.Hour)
	tokenString, err := verifier.MintAccessToken(identity.Identity{ID: "usr_1"})
	require.NoError(t, err)

	claims, err := verifier.VerifyAccessToken(tokenString)
	require.NoError(t, err)

	revocations := revocation.NewInMemoryList()
	require.NoError(t, revocations.Revoke(context.Background(), claims.ID, time.Hour))

	handler := RequireAuth(verifier, revocations, testutil.Logger())(okHandler(nil))
	req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/protected"), tokenString)
	rr := testutil.DoRequest(handler, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeInvalidToken))
}

func TestRequireRoles_AnyOfSemantics(t *testing.T) {
	cases := []struct {
		name     string
		roles    []string
		required []string
		status   int
	}{
		{"exact role", []string{identity.RoleBFFService}, []string{identity.RoleBFFService}, http.StatusOK},
		{"one of several required", []string{identity.RoleBFFService}, []string{identity.RoleAdmin, identity.RoleBFFService}, http.StatusOK},
		{"admin admitted alongside bff", []string{identity.RoleUser, identity.RoleAdmin}, []string{identity.RoleAdmin, identity.RoleBFFService}, http.StatusOK},
		{"user only rejected", []string{identity.RoleUser}, []string{identity.RoleAdmin, identity.RoleBFFService}, http.StatusForbidden},
		{"no roles rejected", nil, []string{identity.RoleAdmin}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequireRoles(testutil.Logger(), tc.required...)(okHandler(nil))

			req := testutil.NewRequest(t, http.MethodGet, "/protected")
			ctx := context.WithValue(req.Context(), ContextKeyIdentity,
				identity.Identity{ID: "usr_1", Roles: tc.roles})
			rr := testutil.DoRequest(handler, req.WithContext(ctx))

			testutil.AssertStatus(t, rr, tc.status)
			if tc.status == http.StatusForbidden {
				testutil.AssertErrorCode(t, rr, string(dErrors.CodeAuthorizationFailed))
			}
		})
	}
}

func TestRequireRoles_WithoutAuthenticatedIdentity(t *testing.T) {
	handler := RequireRoles(testutil.Logger(), identity.RoleAdmin)(okHandler(nil))

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/protected"))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, string(dErrors.CodeAuthenticationFailed))
}
