package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverFile  = "file"
	StoreDriverMongo = "mongo"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	envProduction = "production"
)

type Config struct {
	Port      string        `env:"PORT,        default=3001"`
	Env       string        `env:"ENV,         default=development"`
	JWTSecret string        `env:"JWT_SECRET,  required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,   default=info"`
	LogPretty bool          `env:"LOG_PRETTY,  default=false"`

	BcryptCost          int  `env:"BCRYPT_COST,           default=10"`
	DemoAccountsEnabled bool `env:"DEMO_ACCOUNTS_ENABLED, default=false"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`

	Store     StoreConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER,  default=file"`
	Path   string `env:"DATABASE_PATH, default=database/users.json"`
}

type RateLimitConfig struct {
	Backend string        `env:"RATE_LIMIT_BACKEND, default=memory"`
	Limit   int           `env:"LOGIN_RATE_LIMIT,   default=5"`
	Window  time.Duration `env:"LOGIN_RATE_WINDOW,  default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}

	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH must not be empty"))
		}
	case StoreDriverMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.RateLimit.Backend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimit.Backend))
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_WINDOW must be positive, got %s", c.RateLimit.Window))
	}

	if c.DemoAccountsEnabled && c.IsProduction() {
		errs = append(errs, errors.New("DEMO_ACCOUNTS_ENABLED cannot be set in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.RateLimit.Backend == RateLimitBackendRedis
}
