package myconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	FrontendURL         string
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	ProviderTimeout     time.Duration
}

// Load reads configuration from the environment. Variables found in the given
// .env files are applied first but never override the real environment.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("error loading env-file %s: %s", f, err)
		}
	}

	timeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("invalid PROVIDER_TIMEOUT '%s'", os.Getenv("PROVIDER_TIMEOUT"))
	}

	return Config{
		Port:                getEnv("PORT", "3001"),
		FrontendURL:         strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("CHECKOUT_CURRENCY", "sek")),
		ProviderTimeout:     timeout,
	}, nil
}

// Warnings reports settings that leave part of the system non-functional.
func (c Config) Warnings() []string {
	warnings := []string{}
	if c.StripeSecretKey == "" {
		warnings = append(warnings, "STRIPE_SECRET_KEY not set: checkout sessions cannot be created")
	}
	if c.StripeWebhookSecret == "" {
		warnings = append(warnings, "STRIPE_WEBHOOK_SECRET not set: all webhook events will be refused")
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
