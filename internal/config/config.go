package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Resend   ResendConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	URL string // DATABASE_URL connection string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Environment   string
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// EngineConfig holds tunables for the promo/commission engine
type EngineConfig struct {
	// CouponSyncIntervalMinutes controls the background reconciliation pass
	// that re-projects local promo codes into the processor. Zero disables it.
	CouponSyncIntervalMinutes int
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "postgres://postgres@localhost:5432/coaching_platform?sslmode=disable"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Environment:   getEnv("STRIPE_ENVIRONMENT", "test"),
		},
		Resend: ResendConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", "noreply@coachingplatform.com"),
			FromName:  getEnv("RESEND_FROM_NAME", "Coaching Platform"),
		},
		Engine: EngineConfig{
			CouponSyncIntervalMinutes: getEnvAsInt("COUPON_SYNC_INTERVAL_MINUTES", 15),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
