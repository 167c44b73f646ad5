package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"keygate/internal/identity"
	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/platform/sentinel"
)

// SecretStore is the injected storage boundary. Find must return a wrapped
// sentinel.ErrNotFound for absent ids; Delete reports absence via its bool.
type SecretStore interface {
	Save(ctx context.Context, secret *Secret) error
	Find(ctx context.Context, id string) (*Secret, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Metrics is the subset of gateway metrics the vault reports to.
type Metrics interface {
	ObserveVaultOperation(op, outcome string)
}

// Service enforces the vault's access rules: a secret is readable and
// deletable only by its owner or by the trusted broker principal. Existence
// is checked before authorization, so an unknown id is always "not found"
// regardless of who asks.
type Service struct {
	store    SecretStore
	cipher   Cipher
	brokerID string
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
}

func NewService(store SecretStore, cipher Cipher, brokerID string, logger *slog.Logger, metrics Metrics) *Service {
	return &Service{
		store:    store,
		cipher:   cipher,
		brokerID: brokerID,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("keygate/vault"),
	}
}

// Store seals and persists a secret for the owner. The returned record never
// contains the plaintext.
func (s *Service) Store(ctx context.Context, ownerUserID, service, plaintext string, metadata map[string]any) (*Secret, error) {
	ctx, span := s.tracer.Start(ctx, "vault.store",
		trace.WithAttributes(attribute.String("vault.service", service)))
	defer span.End()

	if strings.TrimSpace(ownerUserID) == "" || strings.TrimSpace(service) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "userId and service are required")
	}
	if plaintext == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "plaintextValue is required")
	}

	sealed, err := s.cipher.Seal([]byte(plaintext))
	if err != nil {
		s.observe("store", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not seal secret")
	}

	now := time.Now().UTC()
	secret := &Secret{
		ID:          SecretID(service, ownerUserID, now),
		OwnerUserID: ownerUserID,
		Service:     service,
		Obfuscated:  sealed,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, secret); err != nil {
		s.observe("store", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not persist secret")
	}

	s.observe("store", "ok")
	s.logger.InfoContext(ctx, "secret stored",
		"secret_id", secret.ID,
		"owner_user_id", ownerUserID,
		"service", service,
	)
	return secret, nil
}

// Get returns the plaintext for the requester if the secret exists and the
// requester is authorized. found=false with a nil error means the id is
// unknown; the caller decides how to surface that.
func (s *Service) Get(ctx context.Context, secretID string, requester identity.Identity) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "vault.get")
	defer span.End()

	secret, err := s.store.Find(ctx, secretID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observe("get", "miss")
			return "", false, nil
		}
		s.observe("get", "error")
		return "", false, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not load secret")
	}

	if err := s.authorize(secret, requester); err != nil {
		s.observe("get", "denied")
		s.logger.WarnContext(ctx, "secret access denied",
			"secret_id", secretID,
			"requester_id", requester.ID,
		)
		return "", true, err
	}

	plaintext, err := s.cipher.Open(secret.Obfuscated)
	if err != nil {
		s.observe("get", "error")
		return "", true, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not open secret")
	}

	s.observe("get", "ok")
	return string(plaintext), true, nil
}

// Delete removes the secret under the same authorization rule as Get.
func (s *Service) Delete(ctx context.Context, secretID string, requester identity.Identity) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "vault.delete")
	defer span.End()

	secret, err := s.store.Find(ctx, secretID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observe("delete", "miss")
			return false, nil
		}
		s.observe("delete", "error")
		return false, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not load secret")
	}

	if err := s.authorize(secret, requester); err != nil {
		s.observe("delete", "denied")
		return false, err
	}

	deleted, err := s.store.Delete(ctx, secretID)
	if err != nil {
		s.observe("delete", "error")
		return false, dErrors.Wrap(err, dErrors.CodeVaultOperationFailed, "could not delete secret")
	}

	s.observe("delete", "ok")
	s.logger.InfoContext(ctx, "secret deleted",
		"secret_id", secretID,
		"requester_id", requester.ID,
	)
	return deleted, nil
}

func (s *Service) authorize(secret *Secret, requester identity.Identity) error {
	if requester.ID == secret.OwnerUserID {
		return nil
	}
	if s.brokerID != "" && requester.ID == s.brokerID {
		return nil
	}
	return dErrors.New(dErrors.CodeAuthorizationFailed,
		fmt.Sprintf("identity is not authorized to access secret for service %q", secret.Service))
}

func (s *Service) observe(op, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveVaultOperation(op, outcome)
	}
}
