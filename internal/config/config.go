package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendSQL    = "sql"
	BackendRemote = "remote"
)

type Config struct {
	Port            string
	DBDSN           string
	Backend         string // sql | remote
	RemoteURL       string
	RemoteTimeout   time.Duration
	APIToken        string // shared secret for /api/v1, both served and called
	ConnectInterval time.Duration
	QueryMaxAge     time.Duration
	LogFile         string
	LogLevel        string
	CookieSecure    bool
	SeedDemo        bool
}

func Load() Config {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DBDSN:           getEnv("DB_DSN", "storefront.db"), // sqlite file in project root
		Backend:         getEnv("BACKEND", BackendSQL),
		RemoteURL:       getEnv("REMOTE_URL", ""),
		RemoteTimeout:   getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
		APIToken:        getEnv("API_TOKEN", ""),
		ConnectInterval: getEnvDuration("CONNECT_INTERVAL", 2*time.Second),
		QueryMaxAge:     getEnvDuration("QUERY_MAX_AGE", 30*time.Second),
		LogFile:         getEnv("LOG_FILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CookieSecure:    getEnvBool("COOKIE_SECURE", false),
		SeedDemo:        getEnvBool("SEED_DEMO", true),
	}
	if cfg.Backend != BackendRemote {
		cfg.Backend = BackendSQL
	}

	log.Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Str("backend", cfg.Backend).
		Str("remote_url", cfg.RemoteURL).
		Str("log_file", cfg.LogFile).
		Bool("api_token_set", cfg.APIToken != "").
		Msg("config loaded")
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn().Str("key", key).Msg("invalid bool, using default")
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Msg("invalid duration, using default")
	}
	return defaultValue
}
