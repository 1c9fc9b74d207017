package main

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/relaykit/core/retry"
	"github.com/dmitrymomot/relaykit/core/server"
	"github.com/dmitrymomot/relaykit/integration/database/pg"
	"github.com/dmitrymomot/relaykit/integration/database/redis"
)

type Config struct {
	AppName  string     `env:"APP_NAME" envDefault:"relayd"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// DefaultFrom is stamped on API requests that omit a sender address.
	DefaultFrom string `env:"MAIL_DEFAULT_FROM,required"`

	// StrictTemplates makes unresolved template variables and missing
	// templates hard errors instead of dev fallbacks.
	StrictTemplates bool `env:"TEMPLATE_STRICT_MODE" envDefault:"false"`

	BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`

	Retry  retry.Policy
	DB     pg.Config
	Redis  redis.Config
	Server server.Config
}
