package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"keygate/internal/audit"
	"keygate/internal/identity"
	"keygate/internal/platform/middleware"
	"keygate/internal/vault"
	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/platform/httputil"
)

// VaultService is the slice of the vault the handler needs.
type VaultService interface {
	Store(ctx context.Context, ownerUserID, service, plaintext string, metadata map[string]any) (*vault.Secret, error)
	Get(ctx context.Context, secretID string, requester identity.Identity) (string, bool, error)
	Delete(ctx context.Context, secretID string, requester identity.Identity) (bool, error)
}

// SecretsHandler exposes the secret custody endpoints. Role requirements are
// enforced by the router middleware; this layer shapes requests/responses and
// emits audit events.
type SecretsHandler struct {
	vault  VaultService
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewSecretsHandler(vault VaultService, auditPub *audit.Publisher, logger *slog.Logger) *SecretsHandler {
	return &SecretsHandler{vault: vault, audit: auditPub, logger: logger}
}

type storeSecretRequest struct {
	UserID         string         `json:"userId"`
	Service        string         `json:"service"`
	PlaintextValue string         `json:"plaintextValue"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type storeSecretResponse struct {
	Message  string `json:"message"`
	SecretID string `json:"secretId"`
}

type getSecretResponse struct {
	SecretValue string `json:"secretValue"`
}

type deleteSecretResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

// handleStore persists a secret. The response carries only the generated id,
// never the plaintext.
func (h *SecretsHandler) handleStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, _ := middleware.GetIdentity(ctx)

	var req storeSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "invalid request body"))
		return
	}

	secret, err := h.vault.Store(ctx, req.UserID, req.Service, req.PlaintextValue, req.Metadata)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.emit(ctx, requester, audit.ActionSecretStored, secret.ID, "success")
	httputil.WriteJSON(w, http.StatusCreated, storeSecretResponse{
		Message:  "secret stored",
		SecretID: secret.ID,
	})
}

func (h *SecretsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, _ := middleware.GetIdentity(ctx)
	keyID := chi.URLParam(r, "keyId")

	plaintext, found, err := h.vault.Get(ctx, keyID, requester)
	if err != nil {
		h.emit(ctx, requester, audit.ActionSecretAccessed, keyID, "denied")
		httputil.WriteError(w, err)
		return
	}
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeVaultOperationFailed, "secret not found").
			WithStatus(http.StatusNotFound))
		return
	}

	h.emit(ctx, requester, audit.ActionSecretAccessed, keyID, "success")
	httputil.WriteJSON(w, http.StatusOK, getSecretResponse{SecretValue: plaintext})
}

func (h *SecretsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, _ := middleware.GetIdentity(ctx)
	keyID := chi.URLParam(r, "keyId")

	deleted, err := h.vault.Delete(ctx, keyID, requester)
	if err != nil {
		h.emit(ctx, requester, audit.ActionSecretDeleted, keyID, "denied")
		httputil.WriteError(w, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeVaultOperationFailed, "secret not found").
			WithStatus(http.StatusNotFound))
		return
	}

	h.emit(ctx, requester, audit.ActionSecretDeleted, keyID, "success")
	httputil.WriteJSON(w, http.StatusOK, deleteSecretResponse{
		Message: "secret deleted",
		Deleted: true,
	})
}

func (h *SecretsHandler) emit(ctx context.Context, requester identity.Identity, action audit.Action, resource, outcome string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(ctx, audit.Event{
		UserID:    requester.ID,
		Email:     requester.Email,
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		RequestID: middleware.GetRequestID(ctx),
	})
}
