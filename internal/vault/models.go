// Package vault is the custodian for per-user, per-service secrets. Access is
// restricted to the owning user or the configured trusted broker principal;
// values are sealed at rest by a pluggable cipher.
package vault

import (
	"fmt"
	"time"
)

// Secret is a stored third-party credential. OwnerUserID is immutable after
// creation; Obfuscated holds the sealed value and is never exposed directly.
type Secret struct {
	ID          string         `json:"id"`
	OwnerUserID string         `json:"ownerUserId"`
	Service     string         `json:"service"`
	Obfuscated  []byte         `json:"-"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// SecretID builds the composite identifier for a new secret.
func SecretID(service, ownerUserID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", service, ownerUserID, at.UnixMilli())
}
