package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLinearScorerRequiresCoefficients(t *testing.T) {
	_, err := NewLinearScorer(nil, 0, zap.NewNop())
	require.Error(t, err)
}

func TestScoreZeroFeatures(t *testing.T) {
	s, err := NewLinearScorer([]float64{0.1, 1.5, 0.0, 0.9}, 0, zap.NewNop())
	require.NoError(t, err)

	// sigmoid(0) is exactly one half.
	got, err := s.Score(context.Background(), []float64{0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestScoreMonotoneInFeatures(t *testing.T) {
	s, err := NewLinearScorer([]float64{0.1, 1.5, 0.0, 0.9}, -2.5, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	clean, err := s.Score(ctx, []float64{1, 0, 0, 0})
	require.NoError(t, err)

	risky, err := s.Score(ctx, []float64{25, 1, 0, 1})
	require.NoError(t, err)

	assert.Less(t, clean, risky)
	assert.GreaterOrEqual(t, clean, 0.0)
	assert.LessOrEqual(t, risky, 1.0)
}

func TestScoreNegativeIntercept(t *testing.T) {
	s, err := NewLinearScorer([]float64{0.1}, -2.5, zap.NewNop())
	require.NoError(t, err)

	got, err := s.Score(context.Background(), []float64{0})
	require.NoError(t, err)
	assert.Less(t, got, 0.5)
}

func TestScoreFeatureCountMismatch(t *testing.T) {
	s, err := NewLinearScorer([]float64{0.1, 1.5}, 0, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Score(context.Background(), []float64{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 features")
}
