package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	// Azure OpenAI
	OpenAIEndpoint        string
	OpenAIAPIKey          string
	OpenAIDeployment      string
	OpenAIDeploymentLarge string
	OpenAIAPIVersion      string

	// Blob storage (S3-compatible)
	BlobEndpoint         string
	BlobAccessKeyID      string
	BlobSecretAccessKey  string
	BlobBucketName       string
	BlobUseSSL           bool
	SignedURLExpiryHours int

	// Microsoft Graph / Entra ID (On-Behalf-Of token exchange)
	EntraTenantID     string
	EntraClientID     string
	EntraClientSecret string

	// Analysis cache
	CacheDBPath   string
	CacheDisabled bool
	CacheTTLHours int

	// Upload limits
	MaxFileSize int64
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		OpenAIEndpoint:        getEnv("AZURE_OPENAI_ENDPOINT", ""),
		OpenAIAPIKey:          getEnv("AZURE_OPENAI_KEY", ""),
		OpenAIDeployment:      getEnv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		OpenAIDeploymentLarge: getEnv("AZURE_OPENAI_DEPLOYMENT_LARGE", ""),
		OpenAIAPIVersion:      getEnv("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
		BlobEndpoint:          getEnv("BLOB_ENDPOINT", "localhost:9000"),
		BlobAccessKeyID:       getEnv("BLOB_ACCESS_KEY_ID", ""),
		BlobSecretAccessKey:   getEnv("BLOB_SECRET_ACCESS_KEY", ""),
		BlobBucketName:        getEnv("BLOB_BUCKET_NAME", "generated-documents"),
		BlobUseSSL:            getEnv("BLOB_USE_SSL", "false") == "true",
		SignedURLExpiryHours:  getEnvInt("SIGNED_URL_EXPIRY_HOURS", 24),
		EntraTenantID:         getEnv("ENTRA_TENANT_ID", ""),
		EntraClientID:         getEnv("ENTRA_CLIENT_ID", ""),
		EntraClientSecret:     getEnv("ENTRA_CLIENT_SECRET", ""),
		CacheDBPath:           getEnv("CACHE_DB_PATH", "data/refresh-cache.db"),
		CacheDisabled:         getEnv("CACHE_DISABLED", "false") == "true",
		CacheTTLHours:         getEnvInt("CACHE_TTL_HOURS", 24),
		MaxFileSize:           10 * 1024 * 1024,
	}

	return cfg, nil
}

// LargeDeployment returns the deployment used for comparative analysis and
// synthesis. Falls back to the standard deployment when no large model is set.
func (c *Config) LargeDeployment() string {
	if c.OpenAIDeploymentLarge != "" {
		return c.OpenAIDeploymentLarge
	}
	return c.OpenAIDeployment
}

// OpenAIConfigured reports whether LLM credentials are present.
func (c *Config) OpenAIConfigured() bool {
	return c.OpenAIEndpoint != "" && c.OpenAIAPIKey != ""
}

// BlobConfigured reports whether the blob store is usable.
func (c *Config) BlobConfigured() bool {
	return c.BlobAccessKeyID != "" && c.BlobSecretAccessKey != ""
}

// GraphConfigured reports whether Entra credentials for the On-Behalf-Of
// exchange are present.
func (c *Config) GraphConfigured() bool {
	return c.EntraTenantID != "" && c.EntraClientID != "" && c.EntraClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s=%q, using %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
