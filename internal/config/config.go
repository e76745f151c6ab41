package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting. Values come from the environment
// with a .env file as a development convenience.
type Config struct {
	Env   string
	Port  string
	Debug bool

	DBPath    string
	JWTSecret string

	APIKey    string
	APISecret string

	CORSAllowOrigins []string

	SyncWebhookURL string

	AIEndpoint string
	AIAPIKey   string
}

// Load reads configuration from the environment, loading .env first when
// present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:   envStr("ENV", "development"),
		Port:  envStr("PORT", "8080"),
		Debug: envBool("DEBUG", false),

		DBPath:    envStr("DB_PATH", "tradelog.db"),
		JWTSecret: envStr("JWT_SECRET", "tradelog-dev-secret"),

		APIKey:    envStr("API_KEY", "test-api-key"),
		APISecret: envStr("API_SECRET", "test-api-secret"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", "http://localhost:5173"),

		SyncWebhookURL: envStr("SYNC_WEBHOOK_URL", ""),

		AIEndpoint: envStr("AI_ENDPOINT", ""),
		AIAPIKey:   envStr("AI_API_KEY", ""),
	}
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := envStr(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
