package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	server := cfg.GetServer()
	assert.Equal(t, "http", server.Type)
	assert.Equal(t, "0.0.0.0:8080", server.ListenAddress)

	tracker, err := cfg.GetTracker()
	require.NoError(t, err)
	assert.Equal(t, "memory", tracker.Type)
	assert.Equal(t, 24*time.Hour, tracker.Window)

	rep, err := cfg.GetReputation()
	require.NoError(t, err)
	assert.Equal(t, "https://ipapi.co", rep.Endpoint)
	assert.Equal(t, 5*time.Second, rep.Timeout)
	assert.Equal(t, 24*time.Hour, rep.TTL)
	assert.Equal(t, 5*time.Minute, rep.NegativeTTL)
	assert.True(t, rep.BreakerEnabled)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Type)

	scorer := cfg.GetScorer()
	assert.Equal(t, "none", scorer.Type)
	assert.Equal(t, []float64{0.08, 1.6, 0.0, 0.9}, scorer.Coefficients)
	assert.Equal(t, -2.5, scorer.Intercept)

	appeal := cfg.GetAppeal()
	assert.Equal(t, "none", appeal.Type)
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	v := NewEmptyViper()
	v.Set("tracker.window", "one day")
	cfg := NewFromViper(v)

	_, err := cfg.GetTracker()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tracker window")
}

func TestGetFloat64SliceFromUntypedValues(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scorer.coefficients", []interface{}{"0.1", 2, 0.5, true})
	cfg := NewFromViper(v)

	assert.Equal(t, []float64{0.1, 2, 0.5, 1}, cfg.GetFloat64Slice("scorer.coefficients"))
}

func TestGetFloat64SliceMissingKey(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	assert.Nil(t, cfg.GetFloat64Slice("scorer.no_such_key"))
}
