package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultSigningKey, cfg.JWTSigningKey)
	assert.Equal(t, "keygate", cfg.Issuer)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.NonceTTL)
	assert.Equal(t, "admin.com", cfg.AdminDomain)
	assert.Equal(t, "simulated", cfg.IdentityMode)
	assert.Equal(t, "svc_bff_broker", cfg.TrustedBrokerID)
	assert.Equal(t, "aesgcm", cfg.VaultCipher)
	assert.False(t, cfg.RotateRefreshTokens)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "keygate.audit", cfg.AuditTopic)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("KEYGATE_ADDR", ":9090")
	t.Setenv("KEYGATE_JWT_SIGNING_KEY", "strong-secret")
	t.Setenv("KEYGATE_ACCESS_TTL", "15m")
	t.Setenv("KEYGATE_ROTATE_REFRESH_TOKENS", "true")
	t.Setenv("KEYGATE_KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "strong-secret", cfg.JWTSigningKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.RotateRefreshTokens)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_BadDurationFallsBack(t *testing.T) {
	t.Setenv("KEYGATE_ACCESS_TTL", "not-a-duration")
	t.Setenv("KEYGATE_REFRESH_TTL", "-1h")

	cfg := FromEnv()
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
}

func TestFromEnv_VaultKeyFallsBackToSigningKey(t *testing.T) {
	t.Setenv("KEYGATE_JWT_SIGNING_KEY", "signing-key")

	cfg := FromEnv()
	assert.Equal(t, "signing-key", cfg.VaultEncryptionKey)

	t.Setenv("KEYGATE_VAULT_KEY", "dedicated-vault-key")
	cfg = FromEnv()
	assert.Equal(t, "dedicated-vault-key", cfg.VaultEncryptionKey)
}

func TestInsecureDefaults(t *testing.T) {
	cfg := FromEnv()
	warnings := cfg.InsecureDefaults()
	assert.Len(t, warnings, 2, "default signing key and derived vault key both warn")

	t.Setenv("KEYGATE_JWT_SIGNING_KEY", "strong-secret")
	t.Setenv("KEYGATE_VAULT_KEY", "dedicated-vault-key")
	cfg = FromEnv()
	assert.Empty(t, cfg.InsecureDefaults())

	t.Setenv("KEYGATE_VAULT_CIPHER", "encoding")
	cfg = FromEnv()
	assert.Len(t, cfg.InsecureDefaults(), 1)
}
