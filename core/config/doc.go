// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/relaykit/core/config"
//
//	type SMTPConfig struct {
//		Host     string `env:"SMTP_HOST,required"`
//		Port     int    `env:"SMTP_PORT" envDefault:"587"`
//		Username string `env:"SMTP_USERNAME,required"`
//		Password string `env:"SMTP_PASSWORD,required"`
//	}
//
//	func main() {
//		var cfg SMTPConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime.
// Different types are cached independently, so every integration package can
// own its Config struct and load it without coordinating with the rest of
// the application.
package config
