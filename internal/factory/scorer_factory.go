package factory

import (
	"fmt"

	"github.com/mikey/fraud-sentinel/internal/adapters/scorer"
	"github.com/mikey/fraud-sentinel/internal/config"
	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// ScorerFactory creates confidence scorers based on configuration
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateConfidenceScorer creates a confidence scorer based on the
// configuration. Type "none" returns nil: the engine runs without a
// scorer and reports confidence 0.
func (f *ScorerFactory) CreateConfidenceScorer() (core.ConfidenceScorer, error) {
	scorerCfg := f.cfg.GetScorer()

	switch scorerCfg.Type {
	case "none", "":
		return nil, nil
	case "linear":
		return scorer.NewLinearScorer(scorerCfg.Coefficients, scorerCfg.Intercept, f.logger)
	case "onnx":
		return scorer.NewONNXScorer(scorerCfg.ModelPath, f.logger)
	default:
		return nil, fmt.Errorf("unsupported scorer type: %s", scorerCfg.Type)
	}
}
