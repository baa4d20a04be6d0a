package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the runtime configuration of the vault API server.
type ServerConfig struct {
	ServiceName      string
	Env              string // "dev", "uat", "prod"
	LogLevel         string
	Port             int
	SecretKey        string // HMAC key for JWT signing
	TokenTTL         time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	VaultSecretName  string // name of the Kubernetes Secret that backs each user's vault
	Kubeconfig       string
}

// ClientConfig holds what the terminal dialog needs to reach the vault API.
type ClientConfig struct {
	ServiceName string
	Env         string
	LogLevel    string
	APIURL      string
	APIToken    string
}

// LoadServer loads server configuration from the environment and a .env file if present.
func LoadServer() *ServerConfig {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &ServerConfig{
		ServiceName:      GetEnv("SERVICE_NAME", "vault-api"),
		Env:              GetEnv("ENV", "dev"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnvInt("PORT", 8080),
		SecretKey:        os.Getenv("SECRET_KEY"),
		TokenTTL:         GetEnvDuration("TOKEN_TTL", 24*time.Hour),
		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		VaultSecretName:  GetEnv("VAULT_SECRET_NAME", "secret-vault"),
		Kubeconfig:       os.Getenv("KUBECONFIG"),
	}
}

// LoadClient loads client configuration from the environment and a .env file if present.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		ServiceName: GetEnv("SERVICE_NAME", "vault-dialog"),
		Env:         GetEnv("ENV", "dev"),
		LogLevel:    GetEnv("LOG_LEVEL", "warn"),
		APIURL:      GetEnv("VAULT_API_URL", "http://localhost:8080"),
		APIToken:    os.Getenv("VAULT_API_TOKEN"),
	}
}

// GetEnv returns the environment variable value for key, or def if unset or empty.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt returns the environment variable value for key parsed as int, or def if unset or invalid.
func GetEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// GetEnvDuration returns the environment variable value for key parsed as time.Duration, or def if unset or invalid.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
