package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/relaykit/core/config"
	"github.com/dmitrymomot/relaykit/core/smtp"
)

// ConfigSource yields the relay configuration to deliver through. Sources
// are consulted in order: environment-backed secrets first, the
// database-backed settings record second. The orchestrator is agnostic to
// where the configuration came from.
type ConfigSource interface {
	SMTPConfig(ctx context.Context) (smtp.Config, error)
}

// SourceFunc adapts a function to the ConfigSource interface.
type SourceFunc func(ctx context.Context) (smtp.Config, error)

func (f SourceFunc) SMTPConfig(ctx context.Context) (smtp.Config, error) { return f(ctx) }

// EnvSource reads the relay configuration from environment variables.
func EnvSource() ConfigSource {
	return SourceFunc(func(ctx context.Context) (smtp.Config, error) {
		var cfg smtp.Config
		if err := config.Load(&cfg); err != nil {
			return smtp.Config{}, err
		}
		if err := cfg.Validate(); err != nil {
			return smtp.Config{}, err
		}
		return cfg, nil
	})
}

type chain []ConfigSource

// Chain tries each source in order and returns the first valid
// configuration. When every source fails, the individual errors are joined
// under ErrNoConfigSource.
func Chain(sources ...ConfigSource) ConfigSource {
	return chain(sources)
}

func (c chain) SMTPConfig(ctx context.Context) (smtp.Config, error) {
	var errs []error
	for _, src := range c {
		cfg, err := src.SMTPConfig(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		return cfg, nil
	}
	if len(errs) == 0 {
		return smtp.Config{}, ErrNoConfigSource
	}
	return smtp.Config{}, fmt.Errorf("%w: %w", ErrNoConfigSource, errors.Join(errs...))
}
