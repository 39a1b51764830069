package scorer

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// LinearScorer is a logistic-regression implementation of the
// ConfidenceScorer interface with coefficients supplied by
// configuration. It mirrors the model the training pipeline exports:
// sigmoid(intercept + w · features) over
// [actions_per_minute, disposable01, asn, duplicate_hint01].
type LinearScorer struct {
	coefficients []float64
	intercept    float64
	logger       *zap.Logger
}

// NewLinearScorer creates a new linear scorer. The coefficient count
// fixes the expected feature vector length.
func NewLinearScorer(coefficients []float64, intercept float64, logger *zap.Logger) (*LinearScorer, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("linear scorer requires at least one coefficient")
	}
	return &LinearScorer{
		coefficients: coefficients,
		intercept:    intercept,
		logger:       logger,
	}, nil
}

// Score returns the fraud probability for the feature vector.
func (s *LinearScorer) Score(ctx context.Context, features []float64) (float64, error) {
	if len(features) != len(s.coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(s.coefficients), len(features))
	}

	z := s.intercept
	for i, w := range s.coefficients {
		z += w * features[i]
	}

	return 1.0 / (1.0 + math.Exp(-z)), nil
}
