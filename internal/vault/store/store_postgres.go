package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"keygate/internal/vault"
	"keygate/pkg/platform/sentinel"
)

// PostgresStore persists secrets in PostgreSQL. Writes go through upserts so
// concurrent saves for the same id cannot lose updates; the database is the
// serialization point.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the secrets table if it does not exist. Intended for
// dev and tests; production deployments run migrations out of band.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vault_secrets (
			id            TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL,
			service       TEXT NOT NULL,
			sealed        BYTEA NOT NULL,
			metadata      JSONB,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure vault schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, secret *vault.Secret) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vault_secrets (id, owner_user_id, service, sealed, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET sealed = EXCLUDED.sealed, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
		secret.ID, secret.OwnerUserID, secret.Service, secret.Obfuscated,
		secret.Metadata, secret.CreatedAt, secret.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save secret: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id string) (*vault.Secret, error) {
	secret := &vault.Secret{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_user_id, service, sealed, metadata, created_at, updated_at
		FROM vault_secrets WHERE id = $1`, id).
		Scan(&secret.ID, &secret.OwnerUserID, &secret.Service, &secret.Obfuscated,
			&secret.Metadata, &secret.CreatedAt, &secret.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("secret %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find secret: %w", err)
	}
	return secret, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM vault_secrets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete secret: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
