package config

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort string

	// DatabaseURL is the Postgres connection string. Empty switches the
	// service to the in-memory store (dev mode).
	DatabaseURL string

	// Hosted identity provider. When IdentityIssuerURL is set, tokens are
	// verified against the provider's JWKS; otherwise the embedded dev
	// provider issues and verifies HS256 tokens with DevJWTSecret.
	IdentityProviderURL   string
	IdentityIssuerURL     string
	IdentityJWKSURL       string
	IdentityAudience      string
	IdentityWebhookSecret string

	DevJWTSecret    string
	TokenExpiration time.Duration

	// EncryptionKey seals conversation-context blobs at rest (32 bytes for AES-256).
	EncryptionKey []byte
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Not an error; production sets real environment variables.
	}

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		IdentityProviderURL:   getEnv("IDENTITY_PROVIDER_URL", ""),
		IdentityIssuerURL:     getEnv("IDENTITY_ISSUER_URL", ""),
		IdentityJWKSURL:       getEnv("IDENTITY_JWKS_URL", ""),
		IdentityAudience:      getEnv("IDENTITY_AUDIENCE", ""),
		IdentityWebhookSecret: getEnv("IDENTITY_WEBHOOK_SECRET", ""),
		DevJWTSecret:          getEnv("DEV_JWT_SECRET", "dev-only-secret-change-me"),
	}

	if cfg.IdentityIssuerURL != "" && cfg.IdentityJWKSURL == "" {
		// Standard discovery layout when the provider does not publish a
		// separate JWKS location.
		cfg.IdentityJWKSURL = cfg.IdentityIssuerURL + "/.well-known/jwks.json"
	}
	if cfg.IdentityIssuerURL != "" && cfg.IdentityWebhookSecret == "" {
		log.Fatal("FATAL: IDENTITY_WEBHOOK_SECRET must be set when a hosted identity provider is configured.")
	}

	tokenExpStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}
	cfg.TokenExpiration = time.Hour * time.Duration(tokenExpHours)

	// Load and decode the Encryption Key (MUST be 64 hex characters for 32 bytes)
	encryptionKeyHex := getEnv("ENCRYPTION_KEY", "")
	if encryptionKeyHex == "" {
		log.Fatal("FATAL: ENCRYPTION_KEY environment variable is not set.")
	}
	keyBytes, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		log.Fatalf("FATAL: Failed to decode ENCRYPTION_KEY from hex: %v", err)
	}
	if len(keyBytes) != 32 {
		log.Fatalf("FATAL: ENCRYPTION_KEY must be 32 bytes (64 hex characters) long, got %d bytes", len(keyBytes))
	}
	cfg.EncryptionKey = keyBytes

	log.Printf("Loaded config: Port=%s, DB=%v, Issuer=%s, TokenExp=%s",
		cfg.HTTPPort, cfg.DatabaseURL != "", cfg.IdentityIssuerURL, cfg.TokenExpiration)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
