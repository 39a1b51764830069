package reputation

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilientClient wraps an HTTP client with a circuit breaker and
// bounded exponential-backoff retries. Retries live here, inside the
// transport; the evaluator itself never retries a lookup.
type ResilientClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	config  ResilientClientConfig
	logger  *zap.Logger
}

// ResilientClientConfig holds configuration for the resilient client.
type ResilientClientConfig struct {
	// Circuit breaker settings
	EnableCircuitBreaker bool
	MaxFailures          uint32
	CircuitTimeout       time.Duration

	// Retry settings
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultResilientClientConfig returns default configuration values.
func DefaultResilientClientConfig() ResilientClientConfig {
	return ResilientClientConfig{
		EnableCircuitBreaker: true,
		MaxFailures:          5,
		CircuitTimeout:       30 * time.Second,
		MaxRetries:           2,
		InitialInterval:      200 * time.Millisecond,
		MaxInterval:          2 * time.Second,
	}
}

// NewResilientClient creates a new resilient HTTP client with the given
// per-request timeout.
func NewResilientClient(timeout time.Duration, config ResilientClientConfig, logger *zap.Logger) *ResilientClient {
	client := &http.Client{
		Timeout: timeout,
	}

	var breaker *gobreaker.CircuitBreaker
	if config.EnableCircuitBreaker {
		settings := gobreaker.Settings{
			Name:        "reputation-api",
			MaxRequests: 1,
			Interval:    0,
			Timeout:     config.CircuitTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.MaxFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}
		breaker = gobreaker.NewCircuitBreaker(settings)
	}

	return &ResilientClient{
		client:  client,
		breaker: breaker,
		config:  config,
		logger:  logger,
	}
}

// Do executes an HTTP request with circuit breaker and retry logic.
func (c *ResilientClient) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.doWithRetry(req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetry(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("circuit breaker is open: %w", err)
		}
		return nil, err
	}

	return result.(*http.Response), nil
}

// doWithRetry executes an HTTP request with exponential backoff.
// Responses with 4xx status are not retried; the service will not
// change its mind about a bad request.
func (c *ResilientClient) doWithRetry(req *http.Request) (*http.Response, error) {
	if c.config.MaxRetries <= 0 {
		return c.client.Do(req)
	}

	var resp *http.Response

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialInterval
	policy.MaxInterval = c.config.MaxInterval

	operation := func() error {
		var err error
		resp, err = c.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}
		return nil
	}

	wrapped := backoff.WithMaxRetries(backoff.WithContext(policy, req.Context()), uint64(c.config.MaxRetries))
	if err := backoff.Retry(operation, wrapped); err != nil {
		return nil, err
	}

	return resp, nil
}
