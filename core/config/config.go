package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[reflect.Type]any)

	loadEnvOnce sync.Once
)

// Load parses environment variables into the given struct pointer.
// Each configuration type is loaded once per process; subsequent calls for
// the same type return the cached value. A .env file in the working
// directory is loaded on first use, if present.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}

	loadEnvOnce.Do(func() {
		// Missing .env is not an error; real environments set vars directly.
		_ = godotenv.Load()
	})

	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeOf(*cfg)
	if cached, ok := cache[t]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", t.String(), err)
	}

	cache[t] = *cfg
	return nil
}

// MustLoad is like Load but panics on failure.
// Intended for application startup where a broken configuration should
// prevent the service from starting at all.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
