package core

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/metrics"
	"github.com/mikey/fraud-sentinel/internal/utils"
)

// Rule weights. Severity is the additive sum of the weights of every
// triggered rule, mapped through the thresholds below.
const (
	weightDuplicateHint    = 4
	weightInvalidEmail     = 1
	weightDisposableDomain = 2
	weightDuplicateEmail   = 2
	weightDuplicateDevice  = 2
	weightBotBehavior      = 2
	weightHighActivity     = 1
	weightLookupFailed     = 1
	weightProxyOrVPN       = 2
	weightCloudProvider    = 1
)

// Actions-per-minute tiers. The higher tier wins; they never both fire.
const (
	botActionsPerMinute  = 20
	highActionsPerMinute = 10
)

// Severity thresholds over the summed flag weights.
const (
	highScoreThreshold   = 4
	mediumScoreThreshold = 2
)

// noIssuesFlag is substituted when no rule fires. Cosmetic only; it
// contributes nothing to the score.
const noIssuesFlag = "No issues detected"

// cloudOrgKeywords mark data-center/cloud providers in the reputation
// org string (case-insensitive substring match).
var cloudOrgKeywords = []string{"cloud", "amazon", "google", "digitalocean", "hosting"}

// Engine evaluates entries for fraud signals. It is safe for concurrent
// use; per-entry evaluation itself is sequential.
type Engine struct {
	registry DomainRegistry
	tracker  DuplicateTracker
	resolver ReputationResolver
	scorer   ConfidenceScorer
	logger   *zap.Logger
}

// NewEngine creates a fraud signal evaluation engine. The scorer may be
// nil, in which case every result carries confidence 0.
func NewEngine(
	registry DomainRegistry,
	tracker DuplicateTracker,
	resolver ReputationResolver,
	scorer ConfidenceScorer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		registry: registry,
		tracker:  tracker,
		resolver: resolver,
		scorer:   scorer,
		logger:   logger,
	}
}

// Evaluate runs every rule against the entry and returns a verdict. It
// always returns a well-formed result: input anomalies and collaborator
// failures degrade to flags or defaults, never to an error.
func (e *Engine) Evaluate(ctx context.Context, entry *Entry) *EvaluationResult {
	timer := metrics.StartTimer()
	defer timer.ObserveDuration()

	email := strings.ToLower(strings.TrimSpace(entry.Email))
	observedAt := e.observationTime(entry)
	apm := entry.ActionsPerMinute
	if apm < 0 {
		apm = 0
	}

	var flags []Flag

	// Rule 1: caller-precomputed duplicate hint.
	if entry.DuplicateEmail {
		flags = append(flags, Flag{Message: "Duplicate email detected", Weight: weightDuplicateHint})
	}

	// Rule 2: mailbox-shape validity.
	if _, err := mail.ParseAddress(email); err != nil {
		flags = append(flags, Flag{Message: "Invalid email format", Weight: weightInvalidEmail})
	}

	// Rule 3: disposable provider.
	disposable := e.registry.IsDisposable(email)
	if disposable {
		flags = append(flags, Flag{Message: "Disposable email provider detected", Weight: weightDisposableDomain})
	}

	// Rule 4: duplicate email within the window. The tracker records the
	// observation even when the hint already fired; only the flag is
	// suppressed then, so tracker state stays correct for later entries.
	emailDup := e.checkDuplicate(ctx, IdentityEmail, email, observedAt)
	if emailDup && !entry.DuplicateEmail {
		flags = append(flags, Flag{Message: "Duplicate email entry within window", Weight: weightDuplicateEmail})
	}

	// Rule 5: duplicate device. A missing device id skips the check.
	if entry.DeviceID != "" {
		if e.checkDuplicate(ctx, IdentityDevice, entry.DeviceID, observedAt) {
			flags = append(flags, Flag{Message: "Same device used for multiple entries", Weight: weightDuplicateDevice})
		}
	}

	// Rule 6: actions-per-minute tiers, mutually exclusive.
	switch {
	case apm >= botActionsPerMinute:
		flags = append(flags, Flag{Message: "Bot-like behavior", Weight: weightBotBehavior})
	case apm >= highActionsPerMinute:
		flags = append(flags, Flag{Message: "Suspiciously high actions/min", Weight: weightHighActivity})
	}

	// Rule 7: IP reputation.
	info := e.lookupReputation(ctx, entry.IP)
	switch {
	case info.Failed:
		flags = append(flags, Flag{Message: "IP lookup failed", Weight: weightLookupFailed})
	case info.Proxy || info.VPN:
		flags = append(flags, Flag{Message: "Proxy/VPN connection suspected", Weight: weightProxyOrVPN})
	case matchesCloudProvider(info.Org):
		flags = append(flags, Flag{
			Message: fmt.Sprintf("IP from data-center/cloud provider: %s", info.Org),
			Weight:  weightCloudProvider,
		})
	}

	severity := aggregateSeverity(flags)
	confidence := e.scoreConfidence(ctx, entry, apm, disposable, info)

	messages := make([]string, 0, len(flags))
	for _, f := range flags {
		messages = append(messages, f.Message)
		metrics.RecordFlag(f.Message)
	}
	if len(messages) == 0 {
		messages = append(messages, noIssuesFlag)
	}

	metrics.RecordEvaluation(string(severity))

	return &EvaluationResult{
		EntryID:      entry.ID,
		Email:        email,
		IP:           entry.IP,
		Flags:        messages,
		Severity:     severity,
		Confidence:   confidence,
		RawLookup:    info.Raw,
		EvaluatedAt:  time.Now(),
		EvaluationID: uuid.NewString(),
	}
}

// observationTime parses the entry timestamp, falling back to the
// current evaluation time when absent or unparsable.
func (e *Engine) observationTime(entry *Entry) time.Time {
	if entry.Timestamp == "" {
		return time.Now()
	}
	ts, err := time.Parse(time.RFC3339, entry.Timestamp)
	if err != nil {
		e.logger.Debug("Unparsable entry timestamp, using evaluation time",
			zap.String("entry_id", entry.ID),
			zap.String("timestamp", entry.Timestamp))
		return time.Now()
	}
	return ts
}

// checkDuplicate consults the tracker. A tracker error degrades to "not
// a duplicate"; the evaluation must not fail on tracker trouble.
func (e *Engine) checkDuplicate(ctx context.Context, kind IdentityKind, key string, observedAt time.Time) bool {
	dup, err := e.tracker.CheckAndRecord(ctx, kind, key, observedAt)
	if err != nil {
		e.logger.Error("Duplicate tracker failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return false
	}
	return dup
}

// lookupReputation resolves the entry IP, mapping any resolver error to
// a failed (empty) reputation.
func (e *Engine) lookupReputation(ctx context.Context, ip string) *ReputationInfo {
	info, err := e.resolver.Lookup(ctx, ip)
	if err != nil || info == nil {
		if err != nil {
			e.logger.Warn("Reputation lookup failed", zap.String("ip", ip), zap.Error(err))
		}
		return &ReputationInfo{Failed: true}
	}
	return info
}

// scoreConfidence builds the fixed feature vector and invokes the
// scorer. Absence of a scorer or any scorer failure yields 0.
func (e *Engine) scoreConfidence(ctx context.Context, entry *Entry, apm float64, disposable bool, info *ReputationInfo) float64 {
	if e.scorer == nil {
		return 0.0
	}

	features := []float64{
		apm,
		utils.BoolToFloat(disposable),
		float64(utils.ASNNumber(info.ASN)),
		utils.BoolToFloat(entry.DuplicateEmail),
	}

	confidence, err := e.scorer.Score(ctx, features)
	if err != nil {
		e.logger.Warn("Confidence scorer failed", zap.String("entry_id", entry.ID), zap.Error(err))
		return 0.0
	}
	if confidence < 0 {
		return 0.0
	}
	if confidence > 1 {
		return 1.0
	}
	return confidence
}

// aggregateSeverity sums flag weights and maps the score to a category.
func aggregateSeverity(flags []Flag) Severity {
	score := 0
	for _, f := range flags {
		score += f.Weight
	}

	switch {
	case score >= highScoreThreshold:
		return SeverityHigh
	case score >= mediumScoreThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func matchesCloudProvider(org string) bool {
	lowered := strings.ToLower(org)
	if lowered == "" {
		return false
	}
	for _, keyword := range cloudOrgKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
