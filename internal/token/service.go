// Package token mints and verifies the gateway's signed tokens. Signing and
// verification are pure, stateless operations; the only shared state is the
// immutable signing key, so the service is freely parallelizable.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"keygate/internal/identity"
	dErrors "keygate/pkg/domain-errors"
)

// AccessTokenClaims is the payload of a short-lived access token. Roles are a
// snapshot at mint time; role changes never retroactively affect issued
// tokens until expiry or refresh.
type AccessTokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity reconstructs the principal captured in the claims.
func (c *AccessTokenClaims) Identity() identity.Identity {
	return identity.Identity{ID: c.UserID, Email: c.Email, Roles: c.Roles}
}

// RefreshTokenClaims extends the access claims with an embedded nonce: a
// separately signed, short-lived token carried as a claim rather than in an
// external store. It is an anti-replay hardening layer, not a revocation
// mechanism; revocation is handled by the TRL keyed on RegisteredClaims.ID.
type RefreshTokenClaims struct {
	AccessTokenClaims
	Nonce string `json:"nonce"`
}

// nonceClaims is the payload of the embedded anti-replay token.
type nonceClaims struct {
	jwt.RegisteredClaims
}

// Service signs and verifies gateway tokens with a symmetric key (HS256).
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nonceTTL   time.Duration
}

// Config carries the token service settings. Zero TTLs fall back to the
// documented defaults (1h access, 7d refresh, 5m nonce).
type Config struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	NonceTTL   time.Duration
}

func NewService(cfg Config) *Service {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.NonceTTL == 0 {
		cfg.NonceTTL = 5 * time.Minute
	}
	return &Service{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		nonceTTL:   cfg.NonceTTL,
	}
}

// AccessTTL exposes the configured access token lifetime for response bodies.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// MintAccessToken signs a short-lived access token for the identity.
func (s *Service) MintAccessToken(id identity.Identity) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		UserID:           id.ID,
		Email:            id.Email,
		Roles:            id.Roles,
		RegisteredClaims: s.registered(now, s.accessTTL),
	}
	return s.sign(claims)
}

// MintRefreshToken signs a long-lived refresh token carrying a fresh nonce.
func (s *Service) MintRefreshToken(id identity.Identity) (string, error) {
	nonce, err := s.mintNonce()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not mint refresh nonce")
	}
	now := time.Now()
	claims := RefreshTokenClaims{
		AccessTokenClaims: AccessTokenClaims{
			UserID:           id.ID,
			Email:            id.Email,
			Roles:            id.Roles,
			RegisteredClaims: s.registered(now, s.refreshTTL),
		},
		Nonce: nonce,
	}
	return s.sign(claims)
}

// MintPair issues both tokens for one identity.
func (s *Service) MintPair(id identity.Identity) (access, refresh string, err error) {
	if access, err = s.MintAccessToken(id); err != nil {
		return "", "", err
	}
	if refresh, err = s.MintRefreshToken(id); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// VerifyAccessToken decodes and validates an access token. Outcomes are
// exactly three: valid claims, TOKEN_EXPIRED (good signature, past expiry),
// or INVALID_TOKEN (bad signature or malformed payload). Raw jwt library
// errors never escape this package.
func (s *Service) VerifyAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken decodes and validates a refresh token with the same
// three-outcome contract as VerifyAccessToken.
func (s *Service) VerifyRefreshToken(tokenString string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Nonce == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "refresh token missing nonce")
	}
	return claims, nil
}

func (s *Service) verify(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
	return nil
}

func (s *Service) mintNonce() (string, error) {
	now := time.Now()
	return s.sign(nonceClaims{RegisteredClaims: s.registered(now, s.nonceTTL)})
}

func (s *Service) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Audience:  []string{s.audience},
		ID:        uuid.NewString(),
	}
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}
