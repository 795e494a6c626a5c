package config

import (
	"os"
)

type Config struct {
	Port            string
	Environment     string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string
	LogDir          string // When set, server logs are mirrored to rotated files
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix()
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		LogDir:          getEnv("LOG_DIR", ""),
	}
}

// getTablePrefix returns the table prefix. Environments normally get their
// own database and run with no prefix; TABLE_PREFIX supports sharing one
// database across environments, in which case the schema is managed
// externally and the embedded migrations are skipped.
func getTablePrefix() string {
	return os.Getenv("TABLE_PREFIX")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
