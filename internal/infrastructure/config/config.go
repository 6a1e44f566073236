package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BcryptCost tunes the credential hasher's work factor.
	BcryptCost int `env:"BCRYPT_COST, default=12"`

	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_dashboard"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// RateLimitConfig holds per-minute request budgets. Registration and login
// are limited harder than the general task API. A limit of 0 disables the
// check for that scope.
type RateLimitConfig struct {
	RegisterPerMinute int `env:"REGISTER_LIMIT_PER_MINUTE, default=5"`
	LoginPerMinute    int `env:"LOGIN_LIMIT_PER_MINUTE,    default=10"`
	APIPerMinute      int `env:"API_LIMIT_PER_MINUTE,      default=100"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
