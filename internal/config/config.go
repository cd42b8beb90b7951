package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Table names are interpolated into SQL, so they must be plain identifiers.
var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config carries all process-wide settings. It is built once at startup and
// passed by reference into the services; nothing mutates it afterwards.
type Config struct {
	DatabaseURL string

	// ClientID is the audience claim stamped into and required from every
	// signed token.
	ClientID   string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	TokenTTL   time.Duration

	CredentialTable string
	MetadataTable   string

	SentryDSN  string
	AppEnv     string
	CronSecret string

	MetadataRetention time.Duration
	CleanupBatchSize  int

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

func Load() (*Config, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	clientID, err := mustEnv("AUTH_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	privatePEM, err := mustEnv("AUTH_PRIVATE_KEY")
	if err != nil {
		return nil, err
	}
	publicPEM, err := mustEnv("AUTH_PUBLIC_KEY")
	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privatePEM))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_PRIVATE_KEY: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicPEM))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_PUBLIC_KEY: %w", err)
	}

	credentialTable := envOrDefault("CREDENTIAL_TABLE", "auth_credentials")
	if !tableNameRegex.MatchString(credentialTable) {
		return nil, fmt.Errorf("invalid CREDENTIAL_TABLE: %q", credentialTable)
	}
	metadataTable := envOrDefault("METADATA_TABLE", "metadata")
	if !tableNameRegex.MatchString(metadataTable) {
		return nil, fmt.Errorf("invalid METADATA_TABLE: %q", metadataTable)
	}

	return &Config{
		DatabaseURL:       databaseURL,
		ClientID:          clientID,
		PrivateKey:        privateKey,
		PublicKey:         publicKey,
		TokenTTL:          envMinutesOrDefault("TOKEN_TTL_MINUTES", 30),
		CredentialTable:   credentialTable,
		MetadataTable:     metadataTable,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		AppEnv:            envOrDefault("APP_ENV", "development"),
		CronSecret:        strings.TrimSpace(os.Getenv("CRON_SECRET")),
		MetadataRetention: envDaysOrDefault("METADATA_RETENTION_DAYS", 90),
		CleanupBatchSize:  envIntOrDefault("CLEANUP_BATCH_SIZE", 500),
		DBMaxOpenConns:    envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime: envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
	}, nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
