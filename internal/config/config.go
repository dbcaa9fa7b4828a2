package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is read once at process start and immutable after; constructors
// receive the values they need instead of reading the environment.
type Config struct {
	HTTPAddr        string
	DBPath          string
	CatalogURL      string
	InventoryURL    string
	ActionToken     string
	JWTSecret       string
	TokenTTL        time.Duration
	RabbitURL       string
	RabbitExchange  string
	OracleTimeout   time.Duration
	CheckoutWorkers int
	ServiceEnv      string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        env("CART_HTTP_ADDR", ":8080"),
		DBPath:          env("CART_DB_PATH", "./data/cart.db"),
		CatalogURL:      env("CATALOG_SERVICE_URL", "http://localhost:8001"),
		InventoryURL:    env("INVENTORY_SERVICE_URL", "http://localhost:8002"),
		ActionToken:     env("INTERNAL_ACTION_TOKEN", ""),
		JWTSecret:       env("JWT_SECRET_KEY", "dev-secret"),
		TokenTTL:        envDuration("ACCESS_TOKEN_TTL", 45*time.Minute),
		RabbitURL:       env("RABBIT_URL", ""),
		RabbitExchange:  env("RABBIT_EXCHANGE", "domain_events"),
		OracleTimeout:   envDuration("ORACLE_TIMEOUT", 4*time.Second),
		CheckoutWorkers: envInt("CHECKOUT_WORKERS", 8),
		ServiceEnv:      env("SERVICE_ENV", "dev"),
	}
	log.Info().
		Str("http", cfg.HTTPAddr).
		Str("db", cfg.DBPath).
		Str("catalog", cfg.CatalogURL).
		Str("inventory", cfg.InventoryURL).
		Str("env", cfg.ServiceEnv).
		Msg("config loaded")
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
