package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/naze-ai/naze/internal/auth"
	"github.com/naze-ai/naze/internal/config"
	"github.com/naze-ai/naze/internal/oracle"
	"github.com/naze-ai/naze/internal/ratelimit"
	"github.com/naze-ai/naze/internal/server"
	"github.com/naze-ai/naze/internal/service/causes"
	"github.com/naze-ai/naze/internal/service/questions"
	"github.com/naze-ai/naze/internal/service/validation"
	"github.com/naze-ai/naze/internal/storage"
	"github.com/naze-ai/naze/internal/telemetry"
	"github.com/naze-ai/naze/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("NAZE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("naze starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Run embedded migrations. RunMigrations tracks applied files in
	// schema_migrations and skips duplicates, so errors here indicate real
	// failures (not "already exists").
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Oracle: Groq client paced by a shared token bucket so concurrent
	// validation runs stay inside the provider's rate limits.
	groq := oracle.NewGroqClient(oracle.GroqConfig{
		APIKey:    cfg.GroqAPIKey,
		BaseURL:   cfg.GroqBaseURL,
		Model:     cfg.OracleModel,
		MaxTokens: cfg.OracleMaxTokens,
		Timeout:   cfg.OracleTimeout,
	}, logger)
	oracleLimiter := ratelimit.NewMemoryLimiter(cfg.OracleRate, cfg.OracleBurst)
	defer func() { _ = oracleLimiter.Close() }()
	provider := oracle.NewLimited(groq, oracleLimiter, "oracle")

	// Services.
	questionSvc := questions.New(db, logger)
	causeSvc := causes.New(db, logger)
	validator := validation.New(db, db, provider, cfg.ValidationConcurrency, logger)

	// Per-user HTTP rate limiter.
	requestLimiter := ratelimit.NewMemoryLimiter(cfg.RequestRate, cfg.RequestBurst)
	defer func() { _ = requestLimiter.Close() }()

	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		QuestionSvc:         questionSvc,
		CauseSvc:            causeSvc,
		Validator:           validator,
		Limiter:             requestLimiter,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("naze shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	return nil
}
