package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("AUTH_CLIENT_ID", "client-123")
	t.Setenv("AUTH_PRIVATE_KEY", string(privPEM))
	t.Setenv("AUTH_PUBLIC_KEY", string(pubPEM))
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-123", cfg.ClientID)
	assert.NotNil(t, cfg.PrivateKey)
	assert.NotNil(t, cfg.PublicKey)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "auth_credentials", cfg.CredentialTable)
	assert.Equal(t, "metadata", cfg.MetadataTable)
	assert.Equal(t, "development", cfg.AppEnv)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_CLIENT_ID", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBadKeyMaterial(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_PRIVATE_KEY", "not a pem")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTableName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CREDENTIAL_TABLE", "users; DROP TABLE users")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_TTL_MINUTES", "5")
	t.Setenv("METADATA_TABLE", "todo_items")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "todo_items", cfg.MetadataTable)
}

func TestEnvBoolOrDefault(t *testing.T) {
	t.Setenv("FLAG", "yes")
	assert.True(t, EnvBoolOrDefault("FLAG", false))

	t.Setenv("FLAG", "0")
	assert.False(t, EnvBoolOrDefault("FLAG", true))

	t.Setenv("FLAG", "")
	assert.True(t, EnvBoolOrDefault("FLAG", true))
}
