// Package config loads typed application configuration from environment
// variables, with optional .env file support for local development.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 behind a
// small generic API. Each configuration struct type is parsed at most once per
// process and served from an in-memory cache on subsequent calls, so packages
// can load their own config independently without re-reading the environment.
//
// Required settings use the `,required` tag option; a missing value fails the
// load, which callers should treat as fatal at startup:
//
//	type BillingConfig struct {
//	    SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
//	    WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
//	}
//
//	var cfg BillingConfig
//	config.MustLoad(&cfg)
//
// Use ResetCache in tests when the process environment changes between cases.
package config
