package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	ListenAddr    string
	DatabaseURL   string
	TokenTTLHours int

	// Featured-slot caps. Configuration, not hard-coded law.
	FeaturedGlobalCap  int
	FeaturedCompanyCap int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	// Best-effort .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	// An empty DatabaseURL is a supported mode: callers fall back to the
	// in-memory adapter.
	cfg := Config{
		Env:                getenv("APP_ENV", "development"),
		ListenAddr:         getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		TokenTTLHours:      getenvInt("TOKEN_TTL_HOURS", 24*7),
		FeaturedGlobalCap:  getenvInt("FEATURED_GLOBAL_CAP", 5),
		FeaturedCompanyCap: getenvInt("FEATURED_COMPANY_CAP", 3),
	}
	if cfg.TokenTTLHours <= 0 {
		return cfg, fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", cfg.TokenTTLHours)
	}
	if cfg.FeaturedGlobalCap < 0 || cfg.FeaturedCompanyCap < 0 {
		return cfg, fmt.Errorf("featured caps must not be negative (global %d, company %d)",
			cfg.FeaturedGlobalCap, cfg.FeaturedCompanyCap)
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}
