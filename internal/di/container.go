package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/appeal"
	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/factory"
	"github.com/mikey/fraud-sentinel/internal/logging"
	"github.com/mikey/fraud-sentinel/internal/ports"
	"github.com/mikey/fraud-sentinel/internal/registry"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTrackerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewResolverFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewAppealFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}

	// Register disposable domain registry. An unreadable list is a
	// startup failure.
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.DomainRegistry, error) {
		return registry.Load(cfg.GetString("registry.path"), logger)
	}); err != nil {
		return nil, err
	}

	// Register duplicate tracker
	if err := container.Provide(func(f *factory.TrackerFactory) (core.DuplicateTracker, error) {
		return f.CreateDuplicateTracker()
	}); err != nil {
		return nil, err
	}

	// Register reputation cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ReputationCache, error) {
		return f.CreateReputationCache()
	}); err != nil {
		return nil, err
	}

	// Register reputation resolver
	if err := container.Provide(func(f *factory.ResolverFactory, repCache core.ReputationCache) (core.ReputationResolver, error) {
		return f.CreateReputationResolver(repCache)
	}); err != nil {
		return nil, err
	}

	// Register confidence scorer (nil when scorer.type is "none")
	if err := container.Provide(func(f *factory.ScorerFactory) (core.ConfidenceScorer, error) {
		return f.CreateConfidenceScorer()
	}); err != nil {
		return nil, err
	}

	// Register appeal store (nil when appeal.type is "none")
	if err := container.Provide(func(f *factory.AppealFactory) (appeal.Store, error) {
		return f.CreateAppealStore()
	}); err != nil {
		return nil, err
	}

	// Register evaluation engine
	if err := container.Provide(core.NewEngine); err != nil {
		return nil, err
	}

	// Register entry server
	if err := container.Provide(func(f *factory.ServerFactory) (ports.EntryServer, error) {
		return f.CreateEntryServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
