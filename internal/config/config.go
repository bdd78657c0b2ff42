package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB         DatabaseConfig
	Redis      RedisConfig
	WhiteLabel WhiteLabelConfig
	Admin      AdminConfig
	Resend     ResendConfig
	Checkout   CheckoutConfig
	Asset      AssetConfig
	Worker     WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WhiteLabelConfig identifies which hosts serve partner-branded traffic.
type WhiteLabelConfig struct {
	Domain     string
	LocalAlias string
}

// AdminConfig contains the back-office access policy and the bootstrap
// account provisioned on startup when set.
type AdminConfig struct {
	AllowedEmails     []string
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string
}

// ResendConfig contains credentials for the transactional email provider.
type ResendConfig struct {
	APIKey      string
	FromAddress string
}

// CheckoutConfig contains the shared secret used to verify checkout webhooks.
type CheckoutConfig struct {
	WebhookSecret string
}

// AssetConfig contains S3-compatible storage settings for brand assets.
type AssetConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	RollupInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// White-label hosts
	cfg.WhiteLabel = WhiteLabelConfig{
		Domain:     getEnv("WHITELABEL_DOMAIN", "guides.meditabi.com"),
		LocalAlias: getEnv("WHITELABEL_LOCAL_ALIAS", "guides.localhost:3000"),
	}

	// Admin access
	cfg.Admin = AdminConfig{
		AllowedEmails:     splitList(getEnv("ADMIN_ALLOWED_EMAILS", "")),
		BootstrapEmail:    getEnv("ADMIN_EMAIL", ""),
		BootstrapPassword: getEnv("ADMIN_PASSWORD", ""),
		BootstrapName:     getEnv("ADMIN_NAME", "Administrator"),
	}

	// Email provider
	cfg.Resend = ResendConfig{
		APIKey:      getEnv("RESEND_API_KEY", ""),
		FromAddress: getEnv("RESEND_FROM", "Meditabi <noreply@meditabi.com>"),
	}

	// Checkout webhook
	cfg.Checkout = CheckoutConfig{
		WebhookSecret: getEnv("CHECKOUT_WEBHOOK_SECRET", ""),
	}

	// Brand asset storage
	cfg.Asset = AssetConfig{
		Region:          getEnv("ASSET_REGION", "ap-northeast-1"),
		Bucket:          getEnv("ASSET_BUCKET", "meditabi-brand-assets"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// Workers (durations)
	var err error
	if cfg.Worker.RollupInterval, err = parseDurationEnv("PAGEVIEW_ROLLUP_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid PAGEVIEW_ROLLUP_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if cfg.Checkout.WebhookSecret == "" {
		return nil, errors.New("CHECKOUT_WEBHOOK_SECRET must be set to verify checkout webhooks")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// splitList parses a comma-separated env value into trimmed non-empty items.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
