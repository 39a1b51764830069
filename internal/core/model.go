package core

import (
	"time"
)

// Severity is the coarse three-level risk category of an evaluation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IdentityKind names which identity field a duplicate check applies to.
type IdentityKind string

const (
	IdentityEmail  IdentityKind = "email"
	IdentityDevice IdentityKind = "device"
)

// Entry represents one signup-or-action event submitted for evaluation.
// The engine treats it as immutable; normalization happens on a copy.
type Entry struct {
	ID               string
	Email            string
	IP               string
	DeviceID         string
	Timestamp        string
	ActionsPerMinute float64
	DuplicateEmail   bool
}

// Flag is a single triggered rule outcome. Weight encodes the severity
// contribution; weights across flags compose additively.
type Flag struct {
	Message string
	Weight  int
}

// EvaluationResult represents the verdict for one entry.
type EvaluationResult struct {
	EntryID      string
	Email        string
	IP           string
	Flags        []string
	Severity     Severity
	Confidence   float64
	RawLookup    map[string]interface{}
	EvaluatedAt  time.Time
	EvaluationID string
}

// ReputationInfo classifies an IP address. Failed means the lookup could
// not produce a classification; the other fields are then zero-valued.
type ReputationInfo struct {
	Proxy  bool
	VPN    bool
	Org    string
	ASN    string
	Raw    map[string]interface{}
	Failed bool
}

// ReputationRecord is a cached reputation lookup for one IP.
type ReputationRecord struct {
	IP        string
	Info      ReputationInfo
	FetchedAt time.Time
	ExpiresAt time.Time
}
