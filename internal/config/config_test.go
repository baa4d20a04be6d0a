package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadServer_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "ENV", "LOG_LEVEL", "PORT", "SECRET_KEY", "TOKEN_TTL",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "VAULT_SECRET_NAME", "KUBECONFIG",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadServer()

	assert.Equal(t, "vault-api", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.SecretKey)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPWriteTimeout)
	assert.Equal(t, "secret-vault", cfg.VaultSecretName)
}

func TestLoadServer_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("VAULT_SECRET_NAME", "team-vault")

	cfg := LoadServer()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "team-vault", cfg.VaultSecretName)
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("VAULT_API_URL", "")
	t.Setenv("VAULT_API_TOKEN", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := LoadClient()

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Empty(t, cfg.APIToken)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestGetEnvHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_DURATION", "forever")

	assert.Equal(t, 7, GetEnvInt("SOME_INT", 7))
	assert.Equal(t, time.Second, GetEnvDuration("SOME_DURATION", time.Second))
	assert.Equal(t, "fallback", GetEnv("UNSET_KEY_FOR_TEST", "fallback"))
}
