package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"metadata-serverless/internal/auth"
	"metadata-serverless/internal/config"
	"metadata-serverless/internal/db"
	"metadata-serverless/internal/maintenance"
	"metadata-serverless/internal/metadata"
	"metadata-serverless/internal/observability"
	"metadata-serverless/internal/token"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	codec := token.NewCodec(cfg.PrivateKey, cfg.PublicKey, cfg.ClientID)
	authRepo := auth.NewRepository(database, cfg.CredentialTable)
	authService := auth.NewService(authRepo, codec, cfg.TokenTTL)
	authorizer := auth.NewAuthorizer(codec, logger)
	authHandler := auth.NewHandler(authService, authorizer, logger)

	if err := seedCredential(context.Background(), authRepo, os.Getenv("AUTH_SEED_USERNAME"), os.Getenv("AUTH_SEED_PASSWORD")); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("seed credential: %w", err)
	}

	metadataRepo := metadata.NewRepository(database, cfg.MetadataTable)
	metadataHandler := metadata.NewHandler(metadataRepo, logger)
	cleanupHandler := maintenance.NewCleanupHandler(
		metadataRepo,
		logger,
		cfg.CronSecret,
		cfg.MetadataRetention,
		cfg.CleanupBatchSize,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/authorize", authHandler.Authorize)
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.Handle("GET /metadata", auth.Middleware(authorizer, http.HandlerFunc(metadataHandler.List)))
	mux.Handle("GET /metadata/{id}", auth.Middleware(authorizer, http.HandlerFunc(metadataHandler.Get)))
	mux.Handle("POST /metadata/{id}", auth.Middleware(authorizer, http.HandlerFunc(metadataHandler.Create)))
	mux.Handle("PUT /metadata/{id}", auth.Middleware(authorizer, http.HandlerFunc(metadataHandler.Update)))
	mux.Handle("DELETE /metadata/{id}", auth.Middleware(authorizer, http.HandlerFunc(metadataHandler.Delete)))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func seedCredential(ctx context.Context, repo *auth.Repository, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("AUTH_SEED_USERNAME and AUTH_SEED_PASSWORD are required together")
	}

	return repo.EnsureCredential(ctx, username, password)
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
