// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and never embed business logic; error translation happens in one
// place (httputil.WriteError) so transport concerns stay isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keygate/internal/identity"
	"keygate/internal/platform/metrics"
	"keygate/internal/platform/middleware"
)

// RouterDeps carries everything the router mounts. Metrics, revocations, and
// audit may be nil; the corresponding stages are skipped.
type RouterDeps struct {
	Auth        *AuthHandler
	Secrets     *SecretsHandler
	Verifier    middleware.TokenVerifier
	Revocations middleware.RevocationChecker
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewRouter wires all public endpoints with the middleware stack.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAuth := middleware.RequireAuth(deps.Verifier, deps.Revocations, deps.Logger)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.Auth.handleRegister)
		r.Post("/login", deps.Auth.handleLogin)
		r.Post("/token", deps.Auth.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/validate", deps.Auth.handleValidate)
		})
	})

	r.Route("/secrets", func(r chi.Router) {
		r.Use(requireAuth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(deps.Logger, identity.RoleAdmin, identity.RoleBFFService))
			r.Post("/store", deps.Secrets.handleStore)
			r.Delete("/delete/{keyId}", deps.Secrets.handleDelete)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoles(deps.Logger, identity.RoleBFFService))
			r.Get("/get/{keyId}", deps.Secrets.handleGet)
		})
	})

	return r
}
