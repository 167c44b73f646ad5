package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	dErrors "keygate/pkg/domain-errors"
	"keygate/pkg/platform/sentinel"
)

// UserStore persists local credentials for the StoreProvider.
type UserStore interface {
	Save(ctx context.Context, user *UserRecord) error
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
}

// UserRecord is a locally registered credential. PasswordHash is a bcrypt
// hash; the plaintext password is never stored.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
}

// StoreProvider verifies credentials against bcrypt hashes in a user store.
// It replaces the simulated shape-check policy with real verification while
// keeping the deterministic admin-domain role rule at registration.
type StoreProvider struct {
	users       UserStore
	adminDomain string
}

func NewStoreProvider(users UserStore, adminDomain string) *StoreProvider {
	return &StoreProvider{users: users, adminDomain: adminDomain}
}

func (p *StoreProvider) Register(ctx context.Context, email, password string) (*Identity, error) {
	if err := checkCredentialShape(email, password); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := p.users.FindByEmail(ctx, email); err == nil {
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "credential lookup failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "password is too long")
		}
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	record := &UserRecord{
		ID:           UserIDFor(email),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        RolesFor(email, p.adminDomain),
	}
	if err := p.users.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist credentials")
	}

	return &Identity{ID: record.ID, Email: record.Email, Roles: record.Roles}, nil
}

func (p *StoreProvider) Login(ctx context.Context, email, password string) (*Identity, error) {
	if err := checkCredentialShape(email, password); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "credential lookup failed")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid email or password")
	}

	return &Identity{ID: record.ID, Email: record.Email, Roles: record.Roles}, nil
}
