package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"keygate/internal/auth/service"
	"keygate/internal/identity"
	"keygate/internal/platform/middleware"
	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/platform/httputil"
)

// AuthService is the slice of the auth orchestration the handler needs.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.RefreshResult, error)
}

// AuthHandler exposes the register/login/refresh/validate endpoints.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userBody struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

type authResponse struct {
	Message      string   `json:"message"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         userBody `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type validateResponse struct {
	IsValid bool     `json:"isValid"`
	User    userBody `json:"user"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	h.establish(w, r, "registered", http.StatusCreated, h.auth.Register)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.establish(w, r, "login successful", http.StatusOK, h.auth.Login)
}

func (h *AuthHandler) establish(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	status int,
	op func(ctx context.Context, email, password string) (*service.AuthResult, error),
) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "email and password are required"))
		return
	}

	result, err := op(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "credential check failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, status, authResponse{
		Message:      message,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         toUserBody(result.Identity),
	})
}

func (h *AuthHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "refreshToken is required"))
		return
	}

	result, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// handleValidate returns the identity RequireAuth attached to the context.
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := middleware.GetIdentity(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "identity missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponse{
		IsValid: true,
		User:    toUserBody(id),
	})
}

func toUserBody(id identity.Identity) userBody {
	return userBody{UserID: id.ID, Email: id.Email, Roles: id.Roles}
}
