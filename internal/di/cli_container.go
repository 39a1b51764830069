package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/factory"
	"github.com/mikey/fraud-sentinel/internal/logging"
	"github.com/mikey/fraud-sentinel/internal/ports"
	"github.com/mikey/fraud-sentinel/internal/registry"
	"github.com/mikey/fraud-sentinel/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Registry flags
	DomainList string

	// Tracker flags
	Window string

	// Reputation flags
	Endpoint    string
	Timeout     string
	TTL         string
	NegativeTTL string

	// Scorer flags
	ScorerType   string
	ModelPath    string
	Coefficients string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Registry flags
	flag.StringVar(&flags.DomainList, "domains", "./data/disposable_domains.txt", "Path to the disposable domain list")

	// Tracker flags
	flag.StringVar(&flags.Window, "window", "24h", "Duplicate window")

	// Reputation flags
	flag.StringVar(&flags.Endpoint, "endpoint", "https://ipapi.co", "IP reputation endpoint")
	flag.StringVar(&flags.Timeout, "timeout", "5s", "IP reputation lookup timeout")
	flag.StringVar(&flags.TTL, "ttl", "24h", "Reputation cache TTL")
	flag.StringVar(&flags.NegativeTTL, "negative-ttl", "5m", "Reputation cache TTL for failed lookups")

	// Scorer flags
	flag.StringVar(&flags.ScorerType, "scorer", "none", "Confidence scorer (none, linear, onnx)")
	flag.StringVar(&flags.ModelPath, "model", "", "Path to the ONNX confidence model")
	flag.StringVar(&flags.Coefficients, "coefficients", "", "Comma-separated linear scorer coefficients")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input entries file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
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

	// Register disposable domain registry
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

	// Register reputation cache and resolver
	if err := container.Provide(func(f *factory.CacheFactory) (core.ReputationCache, error) {
		return f.CreateReputationCache()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ResolverFactory, repCache core.ReputationCache) (core.ReputationResolver, error) {
		return f.CreateReputationResolver(repCache)
	}); err != nil {
		return nil, err
	}

	// Register confidence scorer
	if err := container.Provide(func(f *factory.ScorerFactory) (core.ConfidenceScorer, error) {
		return f.CreateConfidenceScorer()
	}); err != nil {
		return nil, err
	}

	// Register evaluation engine
	if err := container.Provide(core.NewEngine); err != nil {
		return nil, err
	}

	// Register CLI entry server with no appeal overlay
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, engine *core.Engine) (ports.EntryServer, error) {
		f := factory.NewServerFactory(cfg, logger, engine, nil)
		return f.CreateEntryServer()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set cli specific settings
	v.Set("server.type", "cli")
	v.Set("cli.input_file", flags.InputFile)
	v.Set("cli.verbose", flags.Verbose)

	// Registry
	v.Set("registry.path", flags.DomainList)

	// Tracker
	v.Set("tracker.type", "memory")
	v.Set("tracker.window", flags.Window)

	// Reputation
	v.Set("reputation.endpoint", flags.Endpoint)
	v.Set("reputation.timeout", flags.Timeout)
	v.Set("reputation.ttl", flags.TTL)
	v.Set("reputation.negative_ttl", flags.NegativeTTL)

	// Scorer
	v.Set("scorer.type", flags.ScorerType)
	if flags.ModelPath != "" {
		v.Set("scorer.model_path", flags.ModelPath)
	}
	if flags.Coefficients != "" {
		v.Set("scorer.coefficients", parseCoefficients(flags.Coefficients))
	}

	return config.NewFromViper(v)
}

// parseCoefficients parses a comma-separated coefficient list. Invalid
// items become 0 rather than failing the run.
func parseCoefficients(raw string) []float64 {
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		out = append(out, utils.ToFloat(strings.TrimSpace(part)))
	}
	return out
}
