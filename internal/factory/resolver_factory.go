package factory

import (
	"github.com/mikey/fraud-sentinel/internal/adapters/reputation"
	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// ResolverFactory creates IP reputation resolvers based on configuration
type ResolverFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewResolverFactory creates a new resolver factory
func NewResolverFactory(cfg *config.Config, logger *zap.Logger) *ResolverFactory {
	return &ResolverFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReputationResolver creates the caching reputation resolver with
// the resilient HTTP transport underneath.
func (f *ResolverFactory) CreateReputationResolver(repCache core.ReputationCache) (core.ReputationResolver, error) {
	repCfg, err := f.cfg.GetReputation()
	if err != nil {
		return nil, err
	}

	httpClient := reputation.NewResilientClient(repCfg.Timeout, reputation.ResilientClientConfig{
		EnableCircuitBreaker: repCfg.BreakerEnabled,
		MaxFailures:          repCfg.BreakerMaxFailures,
		CircuitTimeout:       repCfg.BreakerTimeout,
		MaxRetries:           repCfg.MaxRetries,
		InitialInterval:      repCfg.RetryInitial,
		MaxInterval:          repCfg.RetryMax,
	}, f.logger)

	client := reputation.NewClient(httpClient, repCfg.Endpoint, f.logger)

	return reputation.NewCachingResolver(client, repCache, repCfg.TTL, repCfg.NegativeTTL, f.logger), nil
}
