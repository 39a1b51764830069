package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/tracker"
	"go.uber.org/zap"
)

// TrackerFactory creates duplicate trackers based on configuration
type TrackerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTrackerFactory creates a new tracker factory
func NewTrackerFactory(cfg *config.Config, logger *zap.Logger) *TrackerFactory {
	return &TrackerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDuplicateTracker creates a duplicate tracker based on the configuration
func (f *TrackerFactory) CreateDuplicateTracker() (core.DuplicateTracker, error) {
	trackerCfg, err := f.cfg.GetTracker()
	if err != nil {
		return nil, err
	}

	switch trackerCfg.Type {
	case "memory":
		return tracker.NewMemoryTracker(trackerCfg.Window, f.logger, trackerCfg.CleanupFreq), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(trackerCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return tracker.NewSQLiteTracker(trackerCfg.SQLitePath, trackerCfg.Window, f.logger, trackerCfg.CleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported tracker type: %s", trackerCfg.Type)
	}
}
