// Package service orchestrates the authentication flows: credential checks
// through the identity provider, token minting and refresh through the token
// service, revocation bookkeeping, and audit emission.
package service

import (
	"context"
	"log/slog"
	"time"

	"keygate/internal/audit"
	"keygate/internal/identity"
	"keygate/internal/token"
	dErrors "keygate/pkg/domain-errors"
)

// RevocationList is the jti revocation store consulted and written by the
// refresh flow. Nil disables revocation bookkeeping.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Metrics is the subset of gateway metrics the auth flows report to.
type Metrics interface {
	ObserveLogin(operation, outcome string)
	ObserveTokenIssued(tokenType string)
}

// TokenPair is what register and login hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult couples the verified identity with its freshly minted tokens.
type AuthResult struct {
	Identity identity.Identity
	Tokens   TokenPair
}

// RefreshResult carries the re-minted access token. RefreshToken is empty
// unless rotation is enabled.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Service wires the identity provider, token service, revocation list, audit
// publisher, and metrics into the gateway's auth operations.
type Service struct {
	provider      identity.Provider
	tokens        *token.Service
	revocations   RevocationList
	audit         *audit.Publisher
	metrics       Metrics
	logger        *slog.Logger
	rotateRefresh bool
}

type Option func(*Service)

// WithRefreshRotation enables refresh-token rotation: every refresh revokes
// the consumed token's jti and mints a replacement. Off by default because it
// changes the refresh response shape observed by clients.
func WithRefreshRotation() Option {
	return func(s *Service) { s.rotateRefresh = true }
}

func NewService(
	provider identity.Provider,
	tokens *token.Service,
	revocations RevocationList,
	auditPub *audit.Publisher,
	metrics Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		provider:    provider,
		tokens:      tokens,
		revocations: revocations,
		audit:       auditPub,
		metrics:     metrics,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new identity via the provider and mints its first token
// pair.
func (s *Service) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	return s.establish(ctx, "register", audit.ActionUserRegistered, email, password, s.provider.Register)
}

// Login verifies credentials via the provider and mints a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return s.establish(ctx, "login", audit.ActionUserLogin, email, password, s.provider.Login)
}

type credentialCheck func(ctx context.Context, email, password string) (*identity.Identity, error)

func (s *Service) establish(
	ctx context.Context,
	operation string,
	action audit.Action,
	email, password string,
	check credentialCheck,
) (*AuthResult, error) {
	id, err := check(ctx, email, password)
	if err != nil {
		s.observeLogin(operation, "failure")
		return nil, err
	}

	access, refresh, err := s.tokens.MintPair(*id)
	if err != nil {
		s.observeLogin(operation, "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not mint tokens")
	}

	s.observeLogin(operation, "success")
	s.observeToken("access")
	s.observeToken("refresh")
	s.emit(ctx, audit.Event{
		UserID:  id.ID,
		Email:   id.Email,
		Action:  action,
		Outcome: "success",
	})

	return &AuthResult{
		Identity: *id,
		Tokens:   TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

// Refresh verifies the refresh token, checks the revocation list, and
// re-mints an access token. With rotation enabled it also revokes the
// consumed jti for the token's remaining lifetime and mints a replacement
// refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check token revocation")
		}
		if revoked {
			s.logger.WarnContext(ctx, "refresh rejected - token revoked", "jti", claims.ID)
			return nil, dErrors.New(dErrors.CodeInvalidToken, "refresh token has been revoked")
		}
	}

	id := claims.Identity()
	access, err := s.tokens.MintAccessToken(id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not mint access token")
	}
	s.observeToken("access")

	result := &RefreshResult{AccessToken: access}

	if s.rotateRefresh {
		if s.revocations != nil && claims.ID != "" {
			remaining := time.Until(claims.ExpiresAt.Time)
			if remaining > 0 {
				if err := s.revocations.Revoke(ctx, claims.ID, remaining); err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not revoke refresh token")
				}
			}
		}
		rotated, err := s.tokens.MintRefreshToken(id)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not rotate refresh token")
		}
		s.observeToken("refresh")
		result.RefreshToken = rotated
	}

	s.emit(ctx, audit.Event{
		UserID:  id.ID,
		Email:   id.Email,
		Action:  audit.ActionTokenRefreshed,
		Outcome: "success",
	})
	return result, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}

func (s *Service) observeLogin(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveLogin(operation, outcome)
	}
}

func (s *Service) observeToken(tokenType string) {
	if s.metrics != nil {
		s.metrics.ObserveTokenIssued(tokenType)
	}
}
