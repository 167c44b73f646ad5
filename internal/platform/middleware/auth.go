package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"keygate/internal/identity"
	"keygate/internal/token"
	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/platform/httputil"
)

// TokenVerifier validates bearer tokens for the auth middleware.
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*token.AccessTokenClaims, error)
}

// RevocationChecker reports whether a token's jti has been revoked. A nil
// checker disables the revocation stage.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Context keys for authenticated request state.
type contextKeyIdentity struct{}
type contextKeyJTI struct{}

var (
	ContextKeyIdentity = contextKeyIdentity{}
	ContextKeyJTI      = contextKeyJTI{}
)

// GetIdentity retrieves the authenticated identity from the context. The
// boolean is false when the request never passed RequireAuth.
func GetIdentity(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(ContextKeyIdentity).(identity.Identity)
	return id, ok
}

// GetJTI retrieves the access token's jti from the context.
func GetJTI(ctx context.Context) string {
	jti, ok := ctx.Value(ContextKeyJTI).(string)
	if !ok {
		return ""
	}
	return jti
}

// RequireAuth extracts and verifies the bearer token, consults the revocation
// list when configured, and attaches the identity to the request context. On
// any failure the request short-circuits with 401 and never reaches a route
// handler.
func RequireAuth(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			raw, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || raw == "" {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeAuthenticationFailed,
					"missing or malformed Authorization header"))
				return
			}

			claims, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - token rejected",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			if revocations != nil && claims.ID != "" {
				revoked, err := revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal,
						"could not validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.ID,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidToken,
						"token has been revoked"))
					return
				}
			}

			ctx = context.WithValue(ctx, ContextKeyIdentity, claims.Identity())
			ctx = context.WithValue(ctx, ContextKeyJTI, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles enforces role membership after RequireAuth with any-of
// semantics: the identity needs at least one of the required roles.
func RequireRoles(logger *slog.Logger, required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := GetIdentity(ctx)
			if !ok {
				// RequireAuth was not mounted ahead of this middleware.
				logger.ErrorContext(ctx, "role check without authenticated identity",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeAuthenticationFailed,
					"authentication required"))
				return
			}
			if !id.HasAnyRole(required...) {
				logger.WarnContext(ctx, "forbidden - missing required role",
					"request_id", GetRequestID(ctx),
					"user_id", id.ID,
					"required_roles", required,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeAuthorizationFailed,
					"identity lacks a required role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
