package factory

import (
	"fmt"

	"github.com/mikey/fraud-sentinel/internal/adapters/server"
	"github.com/mikey/fraud-sentinel/internal/appeal"
	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/ports"
	"go.uber.org/zap"
)

// ServerFactory creates entry servers based on configuration
type ServerFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *core.Engine
	appeals appeal.Store
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger, engine *core.Engine, appeals appeal.Store) *ServerFactory {
	return &ServerFactory{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		appeals: appeals,
	}
}

// CreateEntryServer creates an entry server based on the configuration
func (f *ServerFactory) CreateEntryServer() (ports.EntryServer, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.Type {
	case "http":
		return server.NewHTTPServer(f.engine, f.appeals, f.logger, serverCfg.ListenAddress), nil
	case "cli":
		return server.NewCliRunner(f.engine, f.logger, serverCfg.CliInputFile, serverCfg.CliVerbose)
	default:
		return nil, fmt.Errorf("unsupported server type: %s", serverCfg.Type)
	}
}
