package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mikey/fraud-sentinel/internal/utils"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/fraud-sentinel/")
	v.AddConfigPath("$HOME/.fraud-sentinel")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("FRAUD_SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.type", "http")
	v.SetDefault("server.listen_address", "0.0.0.0:8080")

	// CLI defaults
	v.SetDefault("cli.input_file", "")
	v.SetDefault("cli.verbose", false)

	// Disposable domain registry defaults
	v.SetDefault("registry.path", "./data/disposable_domains.txt")

	// Duplicate tracker defaults
	v.SetDefault("tracker.type", "memory")
	v.SetDefault("tracker.window", "24h")
	v.SetDefault("tracker.cleanup_frequency", "1h")
	v.SetDefault("tracker.sqlite_path", "/data/identity_seen.db")

	// Reputation resolver defaults
	v.SetDefault("reputation.endpoint", "https://ipapi.co")
	v.SetDefault("reputation.timeout", "5s")
	v.SetDefault("reputation.ttl", "24h")
	v.SetDefault("reputation.negative_ttl", "5m")
	v.SetDefault("reputation.retry.max_retries", 2)
	v.SetDefault("reputation.retry.initial_interval", "200ms")
	v.SetDefault("reputation.retry.max_interval", "2s")
	v.SetDefault("reputation.circuit_breaker.enabled", true)
	v.SetDefault("reputation.circuit_breaker.max_failures", 5)
	v.SetDefault("reputation.circuit_breaker.timeout", "30s")

	// Reputation cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/reputation_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/fraud_sentinel?parseTime=true")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Confidence scorer defaults
	v.SetDefault("scorer.type", "none")
	v.SetDefault("scorer.model_path", "/models/fraud_model.onnx")
	v.SetDefault("scorer.coefficients", []float64{0.08, 1.6, 0.0, 0.9})
	v.SetDefault("scorer.intercept", -2.5)

	// Appeal store defaults
	v.SetDefault("appeal.type", "none")
	v.SetDefault("appeal.postgres_dsn", "postgres://localhost:5432/appeals")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetFloat64Slice gets a float64 slice value from the configuration
func (c *Config) GetFloat64Slice(key string) []float64 {
	switch vals := c.v.Get(key).(type) {
	case []float64:
		return vals
	case []interface{}:
		out := make([]float64, 0, len(vals))
		for _, item := range vals {
			out = append(out, utils.ToFloat(item))
		}
		return out
	default:
		return nil
	}
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
