package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/identity"
	dErrors "keygate/pkg/domain-errors"
)

var testIdentity = identity.Identity{
	ID:    "usr_42",
	Email: "a@example.com",
	Roles: []string{identity.RoleUser, identity.RoleBFFService},
}

func newTestService() *Service {
	return NewService(Config{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   "test-audience",
	})
}

func TestMintAccessToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.MintAccessToken(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.ID, claims.UserID)
	assert.Equal(t, testIdentity.Email, claims.Email)
	assert.Equal(t, testIdentity.Roles, claims.Roles)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.NotEmpty(t, claims.ID, "access token must carry a jti")
}

func TestMintRefreshToken_CarriesNonce(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.MintRefreshToken(testIdentity)
	require.NoError(t, err)

	claims, err := svc.VerifyRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
	assert.NotEmpty(t, claims.Nonce, "refresh token must embed a nonce token")

	// The embedded nonce is itself a verifiable short-lived token.
	nonce := &AccessTokenClaims{}
	require.NoError(t, svc.verify(claims.Nonce, nonce))
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), nonce.ExpiresAt.Time, time.Minute)
}

func TestVerify_MalformedToken(t *testing.T) {
	svc := newTestService()

	_, err := svc.VerifyAccessToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
	assert.False(t, dErrors.HasCode(err, dErrors.CodeTokenExpired))
}

func TestVerify_WrongSignature(t *testing.T) {
	svc := newTestService()
	other := NewService(Config{SigningKey: "another-key", Issuer: "test-issuer", Audience: "test-audience"})

	tokenString, err := other.MintAccessToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
}

func TestVerify_ExpiredToken(t *testing.T) {
	svc := NewService(Config{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   "test-audience",
		AccessTTL:  -time.Hour,
	})

	tokenString, err := svc.MintAccessToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenExpired),
		"expired tokens must report TOKEN_EXPIRED, never INVALID_TOKEN")
}

func TestVerify_ExpiredRefreshToken(t *testing.T) {
	svc := NewService(Config{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   "test-audience",
		RefreshTTL: -time.Hour,
	})

	tokenString, err := svc.MintRefreshToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenExpired))
}

func TestVerify_AccessTokenIsNotARefreshToken(t *testing.T) {
	svc := newTestService()

	accessToken, err := svc.MintAccessToken(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(accessToken)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken),
		"access tokens lack a nonce and must be rejected as refresh tokens")
}

func TestClaimsIdentity_RoundTrip(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.MintAccessToken(testIdentity)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity())
}
