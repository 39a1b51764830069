package core

import (
	"context"
	"time"
)

// DomainRegistry answers whether an email address uses a disposable
// mail provider. Implementations are immutable after load.
type DomainRegistry interface {
	// IsDisposable reports whether the address's domain is on the
	// disposable list. Malformed addresses return false.
	IsDisposable(email string) bool
}

// DuplicateTracker records identity observations and reports repeats
// inside a sliding window. CheckAndRecord must linearize the read and
// the write for a given (kind, key) pair.
type DuplicateTracker interface {
	// CheckAndRecord reports whether key was observed within the window
	// before observedAt, and records observedAt as the latest sighting
	// regardless of the outcome.
	CheckAndRecord(ctx context.Context, kind IdentityKind, key string, observedAt time.Time) (bool, error)
}

// ReputationResolver classifies an IP address via an external service.
type ReputationResolver interface {
	// Lookup returns reputation info for the IP. A failed or timed-out
	// lookup is reported through ReputationInfo.Failed, not through the
	// error; the error is reserved for programming mistakes (nil ctx etc).
	Lookup(ctx context.Context, ip string) (*ReputationInfo, error)
}

// ConfidenceScorer produces a fraud probability from a fixed feature
// vector. Optional collaborator; the engine runs without one.
type ConfidenceScorer interface {
	// Score returns a probability in [0,1] for the feature vector
	// [actions_per_minute, disposable01, asn, duplicate_hint01].
	Score(ctx context.Context, features []float64) (float64, error)
}

// ReputationCache stores reputation lookups with a time-to-live. Entries
// past their expiry must be treated as absent.
type ReputationCache interface {
	// Get retrieves a cached record for an IP.
	Get(ctx context.Context, ip string) (*ReputationRecord, error)

	// Set stores a record.
	Set(ctx context.Context, record *ReputationRecord) error

	// Delete removes a record.
	Delete(ctx context.Context, ip string) error

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error
}
