package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-sentinel/internal/appeal"
	"github.com/mikey/fraud-sentinel/internal/config"
	"go.uber.org/zap"
)

// AppealFactory creates appeal status stores based on configuration
type AppealFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAppealFactory creates a new appeal factory
func NewAppealFactory(cfg *config.Config, logger *zap.Logger) *AppealFactory {
	return &AppealFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAppealStore creates an appeal store based on the configuration.
// Type "none" returns nil: responses then carry no appeal overlay.
func (f *AppealFactory) CreateAppealStore() (appeal.Store, error) {
	appealCfg := f.cfg.GetAppeal()

	switch appealCfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return appeal.NewMemoryStore(), nil
	case "postgres":
		return appeal.NewPostgresStore(context.Background(), appealCfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported appeal store type: %s", appealCfg.Type)
	}
}
