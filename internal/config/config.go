// Package config loads the datefmt service configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/datefmt/pkg/logger"
)

// Prefix is prepended to every variable name, e.g. DATEFMT_ADDRESS.
const Prefix = "DATEFMT_"

var (
	ErrParse   = errors.New("config: failed to parse environment")
	ErrInvalid = errors.New("config: invalid value")
)

// Config is the service configuration.
type Config struct {
	Address         string `env:"ADDRESS" envDefault:":8080"`
	DefaultLocale   string `env:"DEFAULT_LOCALE" envDefault:"en"`
	DefaultTimeZone string `env:"DEFAULT_TIME_ZONE" envDefault:"UTC"`

	// LocaleDir holds extra locale files loaded over the embedded ones.
	LocaleDir string `env:"LOCALE_DIR"`

	// RedisURL enables the shared output cache. Without it rendered strings
	// are cached in process memory.
	RedisURL string `env:"REDIS_URL"`

	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	OutputCacheTTL  time.Duration `env:"OUTPUT_CACHE_TTL" envDefault:"1h"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// The in-memory output cache evicts least recently used entries past
	// OutputCacheMaxEntries and sweeps expired ones every OutputCacheCleanup.
	OutputCacheMaxEntries int           `env:"OUTPUT_CACHE_MAX_ENTRIES" envDefault:"10000"`
	OutputCacheCleanup    time.Duration `env:"OUTPUT_CACHE_CLEANUP_INTERVAL" envDefault:"1m"`

	Log    logger.Config `envPrefix:"LOG_"`
	Sentry logger.SentryConfig
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return LoadWith(env.Options{Prefix: Prefix})
}

// LoadWith parses with custom options, e.g. a fixed Environment in tests.
func LoadWith(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Join(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalid)
	}
	if c.DefaultLocale == "" {
		return fmt.Errorf("%w: default locale is empty", ErrInvalid)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalid)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalid)
	}
	if c.OutputCacheMaxEntries <= 0 {
		return fmt.Errorf("%w: output cache max entries must be positive", ErrInvalid)
	}
	if c.OutputCacheCleanup <= 0 {
		return fmt.Errorf("%w: output cache cleanup interval must be positive", ErrInvalid)
	}
	if c.OutputCacheTTL < 0 {
		return fmt.Errorf("%w: output cache ttl must not be negative", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Log.Format {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
