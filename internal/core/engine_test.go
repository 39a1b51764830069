package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRegistry struct {
	domains map[string]bool
}

func (f *fakeRegistry) IsDisposable(email string) bool {
	for domain, disposable := range f.domains {
		if disposable && len(email) > len(domain) && email[len(email)-len(domain):] == domain {
			return true
		}
	}
	return false
}

type observation struct {
	kind IdentityKind
	key  string
	at   time.Time
}

type fakeTracker struct {
	dups     map[string]bool
	err      error
	recorded []observation
}

func (f *fakeTracker) CheckAndRecord(ctx context.Context, kind IdentityKind, key string, observedAt time.Time) (bool, error) {
	f.recorded = append(f.recorded, observation{kind: kind, key: key, at: observedAt})
	if f.err != nil {
		return false, f.err
	}
	return f.dups[string(kind)+"/"+key], nil
}

type fakeResolver struct {
	info *ReputationInfo
	err  error
}

func (f *fakeResolver) Lookup(ctx context.Context, ip string) (*ReputationInfo, error) {
	return f.info, f.err
}

type fakeScorer struct {
	score    float64
	err      error
	features []float64
}

func (f *fakeScorer) Score(ctx context.Context, features []float64) (float64, error) {
	f.features = features
	return f.score, f.err
}

func newTestEngine(registry DomainRegistry, tracker DuplicateTracker, resolver ReputationResolver, scorer ConfidenceScorer) *Engine {
	if registry == nil {
		registry = &fakeRegistry{}
	}
	if tracker == nil {
		tracker = &fakeTracker{}
	}
	if resolver == nil {
		resolver = &fakeResolver{info: &ReputationInfo{}}
	}
	return NewEngine(registry, tracker, resolver, scorer, zap.NewNop())
}

func cleanEntry() *Entry {
	return &Entry{
		ID:               "e-1",
		Email:            "alice@example.com",
		IP:               "203.0.113.7",
		ActionsPerMinute: 1,
	}
}

func TestEvaluateCleanEntry(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	require.NotNil(t, result)
	assert.Equal(t, SeverityLow, result.Severity)
	assert.Equal(t, []string{"No issues detected"}, result.Flags)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "e-1", result.EntryID)
	assert.NotEmpty(t, result.EvaluationID)
	assert.False(t, result.EvaluatedAt.IsZero())
}

func TestEvaluateNormalizesEmail(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, nil)

	entry := cleanEntry()
	entry.Email = "  Alice@Example.COM "
	result := engine.Evaluate(context.Background(), entry)

	assert.Equal(t, "alice@example.com", result.Email)
}

func TestEvaluateInvalidEmail(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, nil)

	entry := cleanEntry()
	entry.Email = "not-an-address"
	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Invalid email format")
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateDisposableDomain(t *testing.T) {
	registry := &fakeRegistry{domains: map[string]bool{"@mailinator.com": true}}
	engine := newTestEngine(registry, nil, nil, nil)

	entry := cleanEntry()
	entry.Email = "bob@mailinator.com"
	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Disposable email provider detected")
	assert.Equal(t, SeverityMedium, result.Severity)
}

func TestEvaluateDuplicateHintIsHighSeverity(t *testing.T) {
	tracker := &fakeTracker{}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.DuplicateEmail = true
	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Duplicate email detected")
	assert.Equal(t, SeverityHigh, result.Severity)
}

func TestEvaluateHintSuppressesTrackerFlagButStillRecords(t *testing.T) {
	// The tracker would also report a duplicate; the hint flag must win
	// and the window flag must not double-count the same signal.
	tracker := &fakeTracker{dups: map[string]bool{"email/alice@example.com": true}}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.DuplicateEmail = true
	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Duplicate email detected")
	assert.NotContains(t, result.Flags, "Duplicate email entry within window")

	// The observation must still have been recorded.
	require.Len(t, tracker.recorded, 1)
	assert.Equal(t, IdentityEmail, tracker.recorded[0].kind)
	assert.Equal(t, "alice@example.com", tracker.recorded[0].key)
}

func TestEvaluateTrackedDuplicateEmail(t *testing.T) {
	tracker := &fakeTracker{dups: map[string]bool{"email/alice@example.com": true}}
	engine := newTestEngine(nil, tracker, nil, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Contains(t, result.Flags, "Duplicate email entry within window")
	assert.Equal(t, SeverityMedium, result.Severity)
}

func TestEvaluateDuplicateDevice(t *testing.T) {
	tracker := &fakeTracker{dups: map[string]bool{"device/device-9": true}}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.DeviceID = "device-9"
	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Same device used for multiple entries")
	assert.Equal(t, SeverityMedium, result.Severity)
}

func TestEvaluateMissingDeviceSkipsDeviceCheck(t *testing.T) {
	tracker := &fakeTracker{}
	engine := newTestEngine(nil, tracker, nil, nil)

	engine.Evaluate(context.Background(), cleanEntry())

	for _, obs := range tracker.recorded {
		assert.NotEqual(t, IdentityDevice, obs.kind)
	}
}

func TestEvaluateTrackerErrorDegradesToNotDuplicate(t *testing.T) {
	tracker := &fakeTracker{err: errors.New("store unavailable")}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.DeviceID = "device-9"
	result := engine.Evaluate(context.Background(), entry)

	assert.NotContains(t, result.Flags, "Duplicate email entry within window")
	assert.NotContains(t, result.Flags, "Same device used for multiple entries")
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateActionRateTiers(t *testing.T) {
	tests := []struct {
		name     string
		apm      float64
		flag     string
		severity Severity
	}{
		{name: "calm", apm: 5, flag: "No issues detected", severity: SeverityLow},
		{name: "elevated", apm: 10, flag: "Suspiciously high actions/min", severity: SeverityLow},
		{name: "elevated upper bound", apm: 19.9, flag: "Suspiciously high actions/min", severity: SeverityLow},
		{name: "bot threshold", apm: 20, flag: "Bot-like behavior", severity: SeverityMedium},
		{name: "bot", apm: 30, flag: "Bot-like behavior", severity: SeverityMedium},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(nil, nil, nil, nil)
			entry := cleanEntry()
			entry.ActionsPerMinute = tc.apm

			result := engine.Evaluate(context.Background(), entry)

			assert.Contains(t, result.Flags, tc.flag)
			assert.Equal(t, tc.severity, result.Severity)
		})
	}
}

func TestEvaluateBotAndElevatedNeverBothFire(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, nil)
	entry := cleanEntry()
	entry.ActionsPerMinute = 50

	result := engine.Evaluate(context.Background(), entry)

	assert.Contains(t, result.Flags, "Bot-like behavior")
	assert.NotContains(t, result.Flags, "Suspiciously high actions/min")
}

func TestEvaluateNegativeActionRate(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, nil)
	entry := cleanEntry()
	entry.ActionsPerMinute = -3

	result := engine.Evaluate(context.Background(), entry)

	assert.Equal(t, []string{"No issues detected"}, result.Flags)
}

func TestEvaluateLookupFailure(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("connect timeout")}
	engine := newTestEngine(nil, nil, resolver, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Contains(t, result.Flags, "IP lookup failed")
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateProxyOrVPN(t *testing.T) {
	resolver := &fakeResolver{info: &ReputationInfo{Proxy: true}}
	engine := newTestEngine(nil, nil, resolver, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Contains(t, result.Flags, "Proxy/VPN connection suspected")
	assert.Equal(t, SeverityMedium, result.Severity)
}

func TestEvaluateCloudProviderOrg(t *testing.T) {
	resolver := &fakeResolver{info: &ReputationInfo{Org: "Google LLC"}}
	engine := newTestEngine(nil, nil, resolver, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Contains(t, result.Flags, "IP from data-center/cloud provider: Google LLC")
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateProxyOutranksCloudOrg(t *testing.T) {
	resolver := &fakeResolver{info: &ReputationInfo{VPN: true, Org: "Amazon.com, Inc."}}
	engine := newTestEngine(nil, nil, resolver, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Contains(t, result.Flags, "Proxy/VPN connection suspected")
	assert.NotContains(t, result.Flags, "IP from data-center/cloud provider: Amazon.com, Inc.")
}

func TestEvaluateRawLookupPassthrough(t *testing.T) {
	raw := map[string]interface{}{"org": "Example Net", "country": "NL"}
	resolver := &fakeResolver{info: &ReputationInfo{Org: "Example Net", Raw: raw}}
	engine := newTestEngine(nil, nil, resolver, nil)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Equal(t, raw, result.RawLookup)
}

func TestEvaluateSeverityAccumulatesAcrossRules(t *testing.T) {
	// Disposable (2) + bot (2) reaches the high threshold together.
	registry := &fakeRegistry{domains: map[string]bool{"@mailinator.com": true}}
	engine := newTestEngine(registry, nil, nil, nil)

	entry := cleanEntry()
	entry.Email = "bob@mailinator.com"
	entry.ActionsPerMinute = 25
	result := engine.Evaluate(context.Background(), entry)

	assert.Equal(t, SeverityHigh, result.Severity)
}

func TestEvaluateScorerFeatureVector(t *testing.T) {
	registry := &fakeRegistry{domains: map[string]bool{"@mailinator.com": true}}
	resolver := &fakeResolver{info: &ReputationInfo{ASN: "AS15169"}}
	scorer := &fakeScorer{score: 0.7}
	engine := newTestEngine(registry, nil, resolver, scorer)

	entry := cleanEntry()
	entry.Email = "bob@mailinator.com"
	entry.ActionsPerMinute = 12
	entry.DuplicateEmail = true
	result := engine.Evaluate(context.Background(), entry)

	assert.Equal(t, []float64{12, 1, 15169, 1}, scorer.features)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestEvaluateScorerFailureYieldsZeroConfidence(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("model not loaded")}
	engine := newTestEngine(nil, nil, nil, scorer)

	result := engine.Evaluate(context.Background(), cleanEntry())

	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, SeverityLow, result.Severity)
}

func TestEvaluateConfidenceClamped(t *testing.T) {
	engine := newTestEngine(nil, nil, nil, &fakeScorer{score: 1.7})
	result := engine.Evaluate(context.Background(), cleanEntry())
	assert.Equal(t, 1.0, result.Confidence)

	engine = newTestEngine(nil, nil, nil, &fakeScorer{score: -0.3})
	result = engine.Evaluate(context.Background(), cleanEntry())
	assert.Equal(t, 0.0, result.Confidence)
}

func TestObservationTimeUsesEntryTimestamp(t *testing.T) {
	tracker := &fakeTracker{}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.Timestamp = "2026-08-30T10:00:00Z"
	engine.Evaluate(context.Background(), entry)

	require.Len(t, tracker.recorded, 1)
	want := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	assert.True(t, tracker.recorded[0].at.Equal(want))
}

func TestObservationTimeFallsBackOnBadTimestamp(t *testing.T) {
	tracker := &fakeTracker{}
	engine := newTestEngine(nil, tracker, nil, nil)

	entry := cleanEntry()
	entry.Timestamp = "yesterday around noon"
	before := time.Now()
	engine.Evaluate(context.Background(), entry)

	require.Len(t, tracker.recorded, 1)
	assert.False(t, tracker.recorded[0].at.Before(before))
}

func TestAggregateSeverityThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  Severity
	}{
		{score: 0, want: SeverityLow},
		{score: 1, want: SeverityLow},
		{score: 2, want: SeverityMedium},
		{score: 3, want: SeverityMedium},
		{score: 4, want: SeverityHigh},
		{score: 9, want: SeverityHigh},
	}

	for _, tc := range tests {
		got := aggregateSeverity([]Flag{{Message: "x", Weight: tc.score}})
		assert.Equal(t, tc.want, got, "score %d", tc.score)
	}
}

func TestMatchesCloudProvider(t *testing.T) {
	assert.True(t, matchesCloudProvider("DigitalOcean, LLC"))
	assert.True(t, matchesCloudProvider("AMAZON-02"))
	assert.True(t, matchesCloudProvider("Fancy Hosting GmbH"))
	assert.False(t, matchesCloudProvider("Comcast Cable Communications"))
	assert.False(t, matchesCloudProvider(""))
}
