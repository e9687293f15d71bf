package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"biovault/internal/biometry"
	"biovault/internal/credstore"
	"biovault/internal/gate"
	"biovault/internal/jwttoken"
	"biovault/internal/keychain/metrics"
	"biovault/internal/platform/config"
	"biovault/internal/platform/httpserver"
	"biovault/internal/platform/logger"
	platformmetrics "biovault/internal/platform/metrics"
	platformredis "biovault/internal/platform/redis"
	httptransport "biovault/internal/transport/http"
	"biovault/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Store logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildBackend(ctx, cfg, log)
	if err != nil {
		log.Error("backend setup failed", "backend", cfg.Backend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	facade := gate.New(store, buildEvaluator(cfg), gate.Config{
		Service:             cfg.Service,
		Label:               cfg.Label,
		AccessGroup:         cfg.AccessGroup,
		BiometricPreference: cfg.BiometricPreference,
		Policy:              biometry.PolicyBiometrics,
	}, gate.WithLogger(log), gate.WithMetrics(metrics.New()))
	defer facade.Close()

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, "biovault", "biovault-demo")
	token, err := jwtSvc.GenerateAccessToken("demo-operator", 24*time.Hour)
	if err != nil {
		log.Error("mint demo token", "error", err)
		os.Exit(1)
	}
	log.Info("demo access token minted; pass as Authorization: Bearer", "token", token)

	handler := httptransport.New(facade, log)
	router := httptransport.NewRouter(handler, auth.RequireAuth(jwtSvc, log), platformmetrics.NewHTTP())
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting biovault demo server",
			"addr", cfg.Addr, "backend", cfg.Backend, "biometric_state", cfg.BiometricState)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildBackend selects and connects the credential store implementation.
func buildBackend(ctx context.Context, cfg config.Server, log *slog.Logger) (credstore.Store, func(), error) {
	var sealer *credstore.Sealer
	if cfg.MasterSecret != "" {
		var err error
		sealer, err = credstore.NewSealer([]byte(cfg.MasterSecret))
		if err != nil {
			return nil, nil, err
		}
	}

	switch cfg.Backend {
	case "memory":
		return credstore.NewMemory(), func() {}, nil

	case "redis":
		client, err := platformredis.New(config.RedisFromEnv())
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("redis backend selected but BIOVAULT_REDIS_URL is empty")
		}
		var opts []credstore.RedisOption
		if sealer != nil {
			opts = append(opts, credstore.WithRedisSealer(sealer))
		}
		return credstore.NewRedis(client.Client, log, opts...), func() { _ = client.Close() }, nil

	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, nil, fmt.Errorf("postgres backend selected but BIOVAULT_POSTGRES_URL is empty")
		}
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		var opts []credstore.PostgresOption
		if sealer != nil {
			opts = append(opts, credstore.WithPostgresSealer(sealer))
		}
		store := credstore.NewPostgres(db, log, opts...)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// buildEvaluator scripts the biometric subsystem for the demo host, which
// has no real sensor.
func buildEvaluator(cfg config.Server) biometry.Evaluator {
	fake := biometry.NewFake()
	switch cfg.BiometricState {
	case "enrolled":
		fake.SetEnrolled()
	case "unenrolled":
		fake.SetNotEnrolled()
	case "no-passcode":
		fake.SetNoPasscode()
	case "no-hardware":
		fake.SetNoHardware()
	}
	return fake
}
