package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/2sipping0/pixelnextdigital/pkg/config"
)

// ServiceName prefixes environment overrides, e.g. ORDERFLOW_STRIPE_SECRET_KEY.
const ServiceName = "orderflow"

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Coinbase  CoinbaseConfig  `mapstructure:"coinbase"`
	Email     EmailConfig     `mapstructure:"email"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// LoadConfig reads configs/<env>/orderflow.yaml (or CONFIG_PATH) and applies
// ORDERFLOW_* environment overrides on top.
func LoadConfig() (*Config, error) {
	loaded, err := pkgconfig.Load(ServiceName, defaults())
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":        ServiceName,
		"service.environment": "development",
		"service.version":     "dev",
		"service.base_url":    "http://localhost:3000",

		"server.http.host":          "0.0.0.0",
		"server.http.port":          8080,
		"server.http.read_timeout":  15 * time.Second,
		"server.http.write_timeout": 15 * time.Second,
		"server.allowed_origins":    []string{"*"},

		"store.driver": StoreDriverMemory,

		"database.host":               "localhost",
		"database.port":               5432,
		"database.name":               "orderflow",
		"database.user":               "postgres",
		"database.password":           "",
		"database.sslmode":            "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  30 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,

		"supabase.url":        "",
		"supabase.anon_key":   "",
		"supabase.jwt_secret": "",

		"redis.enabled":  false,
		"redis.addr":     "localhost:6379",
		"redis.password": "",
		"redis.db":       0,

		"stripe.secret_key":      "",
		"stripe.publishable_key": "",
		"stripe.webhook_secret":  "",

		"coinbase.api_key":        "",
		"coinbase.webhook_secret": "",
		"coinbase.api_url":        "https://api.commerce.coinbase.com",

		"email.resend_api_key":   "",
		"email.from":             "PixelNextDigital <info@pixelnextdigital.com>",
		"email.admin_from":       "PixelNextDigital <support@pixelnextdigital.com>",
		"email.admin_recipients": []string{"info@pixelnextdigital.com"},
		"email.admin_portal_url": "https://admin.pixelnextdigital.com",

		"session.secret":      "",
		"session.cookie_name": "orderflow_admin",
		"session.max_age":     8 * 60 * 60,

		"rate_limit.requests_per_second": 5.0,
		"rate_limit.burst":               10,

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.file_path":   "",
		"log.development": false,
	}
}
