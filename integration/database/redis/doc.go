// Package redis provides Redis client initialization, health checking and
// the suppression-list store of the delivery service.
//
// Connect validates the connection URL, retries transient startup failures
// under a timeout and verifies connectivity with a ping before returning
// the client. Healthcheck returns a probe for the health endpoint.
//
// SuppressionStore is the do-not-send list: the HTTP surface checks every
// recipient against it before a delivery is attempted, so hard bounces and
// unsubscribes stop future sends immediately without a database round trip.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
package redis
