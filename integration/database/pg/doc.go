// Package pg provides PostgreSQL connection management, migrations and the
// database-backed stores of the delivery service.
//
// It wraps the pgx driver with application-level retry logic, connection
// pool tuning and integrated goose migrations. Three stores live here:
//
//   - DeliveryLogStore: the delivery audit trail, one record per delivery
//     (implements delivery.AttemptLogger)
//   - SettingsStore: the single SMTP settings record, the fallback half of
//     the configuration source chain (implements delivery.ConfigSource)
//   - TemplateStore: message templates by key (implements template.Store)
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		MigrationsPath    string        `env:"PG_MIGRATIONS_PATH" envDefault:"migrations"`
//		MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
//	}
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//		log.Fatal(err)
//	}
//
//	logs := pg.NewDeliveryLogStore(pool)
//	settings := pg.NewSettingsStore(pool)
//
// The Healthcheck function returns a probe suitable for the health
// endpoint, and WithTx/TxFromContext propagate a pgx.Tx through context so
// stores can participate in an enclosing transaction.
package pg
