// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"keygate/internal/audit"
	authservice "keygate/internal/auth/service"
	"keygate/internal/auth/store/revocation"
	"keygate/internal/identity"
	"keygate/internal/platform/config"
	"keygate/internal/platform/httpserver"
	"keygate/internal/platform/logger"
	"keygate/internal/platform/metrics"
	platformredis "keygate/internal/platform/redis"
	"keygate/internal/token"
	httptransport "keygate/internal/transport/http"
	"keygate/internal/vault"
	vaultstore "keygate/internal/vault/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	for _, warning := range cfg.InsecureDefaults() {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	tokens := token.NewService(token.Config{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		NonceTTL:   cfg.NonceTTL,
	})

	var provider identity.Provider
	switch cfg.IdentityMode {
	case "local":
		provider = identity.NewStoreProvider(identity.NewInMemoryUserStore(), cfg.AdminDomain)
	default:
		provider = identity.NewSimulatedProvider(cfg.AdminDomain)
	}

	var revocations authservice.RevocationList
	redisClient, err := platformredis.New(ctx, cfg.RedisURL, cfg.RedisPool)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
		log.Info("token revocation list backed by redis")
	} else {
		revocations = revocation.NewInMemoryList()
		log.Info("token revocation list in memory")
	}

	cipher, err := buildCipher(cfg)
	if err != nil {
		log.Error("failed to initialize vault cipher", "error", err)
		os.Exit(1)
	}

	var secrets vault.SecretStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pgStore := vaultstore.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure vault schema", "error", err)
			os.Exit(1)
		}
		secrets = pgStore
		log.Info("secret vault backed by postgres")
	} else {
		secrets = vaultstore.NewInMemoryStore()
		log.Info("secret vault in memory")
	}

	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect audit producer", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	} else {
		sink = audit.NewSlogSink(log)
	}
	publisher := audit.NewPublisher(sink, log, audit.WithAsyncBuffer(cfg.AuditBuffer))
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	var authOpts []authservice.Option
	if cfg.RotateRefreshTokens {
		authOpts = append(authOpts, authservice.WithRefreshRotation())
	}
	auth := authservice.NewService(provider, tokens, revocations, publisher, m, log, authOpts...)
	vaultSvc := vault.NewService(secrets, cipher, cfg.TrustedBrokerID, log, m)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Auth:        httptransport.NewAuthHandler(auth, log),
		Secrets:     httptransport.NewSecretsHandler(vaultSvc, publisher, log),
		Verifier:    tokens,
		Revocations: revocations,
		Metrics:     m,
		Logger:      log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting keygate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("gateway terminated", "error", err)
		os.Exit(1)
	}
	log.Info("gateway stopped")
}

func buildCipher(cfg config.Config) (vault.Cipher, error) {
	if cfg.VaultCipher == "encoding" {
		return vault.Encoding{}, nil
	}
	return vault.NewAESGCM(cfg.VaultEncryptionKey)
}
