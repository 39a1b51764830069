package config

import (
	"fmt"
	"time"
)

// TrackerConfig represents the configuration for the duplicate tracker
type TrackerConfig struct {
	Type        string
	Window      time.Duration
	CleanupFreq time.Duration
	SQLitePath  string
}

// ReputationConfig represents the configuration for the IP reputation resolver
type ReputationConfig struct {
	Endpoint           string
	Timeout            time.Duration
	TTL                time.Duration
	NegativeTTL        time.Duration
	MaxRetries         int
	RetryInitial       time.Duration
	RetryMax           time.Duration
	BreakerEnabled     bool
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// CacheConfig represents the configuration for the reputation cache
type CacheConfig struct {
	Type          string
	CleanupFreq   time.Duration
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ScorerConfig represents the configuration for the confidence scorer
type ScorerConfig struct {
	Type         string
	ModelPath    string
	Coefficients []float64
	Intercept    float64
}

// AppealConfig represents the configuration for the appeal status store
type AppealConfig struct {
	Type        string
	PostgresDSN string
}

// ServerConfig represents the configuration for the entry server
type ServerConfig struct {
	Type          string
	ListenAddress string
	CliInputFile  string
	CliVerbose    bool
}

// GetTracker returns the duplicate tracker configuration
func (c *Config) GetTracker() (TrackerConfig, error) {
	window, err := c.GetDuration("tracker.window")
	if err != nil {
		return TrackerConfig{}, fmt.Errorf("invalid tracker window: %w", err)
	}
	cleanupFreq, err := c.GetDuration("tracker.cleanup_frequency")
	if err != nil {
		return TrackerConfig{}, fmt.Errorf("invalid tracker cleanup frequency: %w", err)
	}
	return TrackerConfig{
		Type:        c.GetString("tracker.type"),
		Window:      window,
		CleanupFreq: cleanupFreq,
		SQLitePath:  c.GetString("tracker.sqlite_path"),
	}, nil
}

// GetReputation returns the reputation resolver configuration
func (c *Config) GetReputation() (ReputationConfig, error) {
	timeout, err := c.GetDuration("reputation.timeout")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid reputation timeout: %w", err)
	}
	ttl, err := c.GetDuration("reputation.ttl")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid reputation TTL: %w", err)
	}
	negativeTTL, err := c.GetDuration("reputation.negative_ttl")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid reputation negative TTL: %w", err)
	}
	retryInitial, err := c.GetDuration("reputation.retry.initial_interval")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid retry initial interval: %w", err)
	}
	retryMax, err := c.GetDuration("reputation.retry.max_interval")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid retry max interval: %w", err)
	}
	breakerTimeout, err := c.GetDuration("reputation.circuit_breaker.timeout")
	if err != nil {
		return ReputationConfig{}, fmt.Errorf("invalid circuit breaker timeout: %w", err)
	}
	return ReputationConfig{
		Endpoint:           c.GetString("reputation.endpoint"),
		Timeout:            timeout,
		TTL:                ttl,
		NegativeTTL:        negativeTTL,
		MaxRetries:         c.GetInt("reputation.retry.max_retries"),
		RetryInitial:       retryInitial,
		RetryMax:           retryMax,
		BreakerEnabled:     c.GetBool("reputation.circuit_breaker.enabled"),
		BreakerMaxFailures: uint32(c.GetInt("reputation.circuit_breaker.max_failures")),
		BreakerTimeout:     breakerTimeout,
	}, nil
}

// GetCache returns the reputation cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	cleanupFreq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return CacheConfig{
		Type:          c.GetString("cache.type"),
		CleanupFreq:   cleanupFreq,
		SQLitePath:    c.GetString("cache.sqlite_path"),
		MySQLDSN:      c.GetString("cache.mysql_dsn"),
		RedisAddr:     c.GetString("cache.redis_addr"),
		RedisPassword: c.GetString("cache.redis_password"),
		RedisDB:       c.GetInt("cache.redis_db"),
	}, nil
}

// GetScorer returns the confidence scorer configuration
func (c *Config) GetScorer() ScorerConfig {
	return ScorerConfig{
		Type:         c.GetString("scorer.type"),
		ModelPath:    c.GetString("scorer.model_path"),
		Coefficients: c.GetFloat64Slice("scorer.coefficients"),
		Intercept:    c.GetFloat64("scorer.intercept"),
	}
}

// GetAppeal returns the appeal store configuration
func (c *Config) GetAppeal() AppealConfig {
	return AppealConfig{
		Type:        c.GetString("appeal.type"),
		PostgresDSN: c.GetString("appeal.postgres_dsn"),
	}
}

// GetServer returns the entry server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Type:          c.GetString("server.type"),
		ListenAddress: c.GetString("server.listen_address"),
		CliInputFile:  c.GetString("cli.input_file"),
		CliVerbose:    c.GetBool("cli.verbose"),
	}
}
