// Package config builds the gateway configuration from the environment so
// main stays lean. Every setting has a default; insecure defaults are
// reported through InsecureDefaults so main can log loud warnings.
package config

import (
	"os"
	"strings"
	"time"
)

// DefaultSigningKey is the insecure dev fallback for the JWT signing secret.
const DefaultSigningKey = "dev-secret-key-change-in-production"

// Config captures everything the gateway reads from the environment.
type Config struct {
	Addr string

	JWTSigningKey string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	NonceTTL      time.Duration

	AdminDomain     string
	IdentityMode    string // "simulated" or "local"
	TrustedBrokerID string

	VaultCipher        string // "aesgcm" or "encoding"
	VaultEncryptionKey string

	RotateRefreshTokens bool

	RedisURL     string
	RedisPool    int
	DatabaseURL  string
	KafkaBrokers []string
	AuditTopic   string
	AuditBuffer  int
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("KEYGATE_ADDR", ":8080"),
		JWTSigningKey:       envOr("KEYGATE_JWT_SIGNING_KEY", DefaultSigningKey),
		Issuer:              envOr("KEYGATE_ISSUER", "keygate"),
		Audience:            envOr("KEYGATE_AUDIENCE", "internal-services"),
		AccessTTL:           durationOr("KEYGATE_ACCESS_TTL", time.Hour),
		RefreshTTL:          durationOr("KEYGATE_REFRESH_TTL", 7*24*time.Hour),
		NonceTTL:            durationOr("KEYGATE_NONCE_TTL", 5*time.Minute),
		AdminDomain:         envOr("KEYGATE_ADMIN_DOMAIN", "admin.com"),
		IdentityMode:        envOr("KEYGATE_IDENTITY_MODE", "simulated"),
		TrustedBrokerID:     envOr("KEYGATE_TRUSTED_BROKER_ID", "svc_bff_broker"),
		VaultCipher:         envOr("KEYGATE_VAULT_CIPHER", "aesgcm"),
		VaultEncryptionKey:  os.Getenv("KEYGATE_VAULT_KEY"),
		RotateRefreshTokens: os.Getenv("KEYGATE_ROTATE_REFRESH_TOKENS") == "true",
		RedisURL:            os.Getenv("KEYGATE_REDIS_URL"),
		RedisPool:           10,
		DatabaseURL:         os.Getenv("KEYGATE_DATABASE_URL"),
		AuditTopic:          envOr("KEYGATE_AUDIT_TOPIC", "keygate.audit"),
		AuditBuffer:         256,
	}

	if brokers := os.Getenv("KEYGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	// The vault key falls back to the signing key so the gateway still starts
	// in dev; InsecureDefaults surfaces this.
	if cfg.VaultEncryptionKey == "" {
		cfg.VaultEncryptionKey = cfg.JWTSigningKey
	}

	return cfg
}

// InsecureDefaults lists configuration choices that must not reach
// production. main logs each one at Warn on startup.
func (c Config) InsecureDefaults() []string {
	var warnings []string
	if c.JWTSigningKey == DefaultSigningKey {
		warnings = append(warnings,
			"KEYGATE_JWT_SIGNING_KEY is the insecure default; set a strong secret before production use")
	}
	if os.Getenv("KEYGATE_VAULT_KEY") == "" {
		warnings = append(warnings,
			"KEYGATE_VAULT_KEY is unset; vault encryption key is derived from the signing key")
	}
	if c.VaultCipher == "encoding" {
		warnings = append(warnings,
			"KEYGATE_VAULT_CIPHER=encoding stores secrets with reversible encoding, not encryption")
	}
	return warnings
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
