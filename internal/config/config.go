package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	CORSAllowOrigin string

	// Cache TTLs (seconds). StoreCacheTTL covers the read-through store
	// cache, ResultCacheTTL covers composed index results.
	StoreCacheTTLSeconds  int
	ResultCacheTTLSeconds int

	// Overview horizons (days).
	OverviewDays1  int
	OverviewDays7  int
	OverviewDays30 int

	// PortionEpsilon is the portion-sum tolerance as a decimal string.
	// Empty means the package default (1e-8).
	PortionEpsilon string

	RequestTimeoutSeconds int
}

// Load reads configuration from the environment, with .env as a
// fallback for local development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            envStr("PORT", "8080"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		RedisURL:        envStr("REDIS_URL", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		StoreCacheTTLSeconds:  envInt("STORE_CACHE_TTL_SECONDS", 30),
		ResultCacheTTLSeconds: envInt("RESULT_CACHE_TTL_SECONDS", 60),

		OverviewDays1:  envInt("OVERVIEW_DAYS_1", 1),
		OverviewDays7:  envInt("OVERVIEW_DAYS_7", 7),
		OverviewDays30: envInt("OVERVIEW_DAYS_30", 30),

		PortionEpsilon: envStr("PORTION_EPSILON", ""),

		RequestTimeoutSeconds: envInt("REQUEST_TIMEOUT_SECONDS", 30),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
