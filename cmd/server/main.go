package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthchat-backend/internal/api"
	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/config"
	"healthchat-backend/internal/crypto"
	"healthchat-backend/internal/events"
	"healthchat-backend/internal/handlers"
	"healthchat-backend/internal/identity"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/services"
	"healthchat-backend/internal/store"
	"healthchat-backend/internal/store/memory"
	"healthchat-backend/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting HealthChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize the Store
	var dataStore store.Store
	if cfg.DatabaseURL != "" {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dbCancel()

		dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("FATAL: Unable to create database connection pool: %v", err)
		}
		defer dbpool.Close()

		if err := dbpool.Ping(dbCtx); err != nil {
			log.Fatalf("FATAL: Unable to ping database: %v", err)
		}
		dataStore = postgres.NewPostgresStore(dbpool)
		log.Println("Postgres store initialized.")
	} else {
		log.Println("WARN: DATABASE_URL not set, using in-memory store (dev mode, data is not persisted).")
		dataStore = memory.NewMemoryStore()
	}

	// 3. Identity Event Bridge
	bridge := events.NewBridge(dataStore)

	// 4. Token Verifier + Identity Provider
	var (
		verifier auth.Verifier
		provider identity.Provider
	)
	if cfg.IdentityIssuerURL != "" {
		verifier = auth.NewOIDCVerifier(context.Background(), cfg.IdentityIssuerURL, cfg.IdentityJWKSURL, cfg.IdentityAudience)
		provider = identity.NewHTTPProvider(cfg.IdentityProviderURL)
		log.Printf("OIDC token verifier initialized for issuer %s.", cfg.IdentityIssuerURL)
	} else {
		log.Println("WARN: IDENTITY_ISSUER_URL not set, using embedded dev identity provider.")
		verifier = auth.NewHS256Verifier(cfg.DevJWTSecret)
		provider = identity.NewDevProvider(cfg.DevJWTSecret, cfg.TokenExpiration,
			func(ctx context.Context, id identity.Identity) error {
				return bridge.HandleIdentityCreated(ctx, models.IdentityCreatedRequest{
					ID:        id.ID,
					Email:     id.Email,
					CreatedAt: id.CreatedAt,
					Metadata:  id.Metadata,
				})
			})
	}

	// 5. Policy Engine and Context Sealer
	engine := authz.NewEngine(dataStore)

	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("FATAL: Failed to create context sealer: %v", err)
	}

	// 6. Services
	authService := services.NewAuthService(provider, dataStore)
	profileService := services.NewProfileService(dataStore, engine)
	chatService := services.NewChatService(dataStore, engine, sealer)
	articleService := services.NewArticleService(dataStore, engine)
	adminService := services.NewAdminService(dataStore, engine)

	// 7. Handlers and Router
	routerDeps := api.RouterDependencies{
		Verifier:             verifier,
		AuthHandler:          handlers.NewAuthHandler(authService),
		ProfileHandler:       handlers.NewProfileHandler(profileService),
		ChatHandler:          handlers.NewChatHandlers(chatService),
		ArticleHandler:       handlers.NewArticleHandlers(articleService),
		AdminHandler:         handlers.NewAdminHandlers(adminService),
		IdentityEventHandler: handlers.NewIdentityEventHandlers(bridge, cfg.IdentityWebhookSecret),
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 8. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v", cfg.HTTPPort, err)
		}
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}
	log.Println("Server shutdown complete.")
}
