// Package appeal provides a read-only lookup of human appeal decisions
// keyed by (email, ip). It is consumed by the presentation layer to
// overlay "already appealed" on verdicts; the evaluation engine never
// reads it.
package appeal

import (
	"context"
)

// Store looks up the appeal status for an identity.
type Store interface {
	// Status returns the appeal status string for (email, ip) and
	// whether an appeal exists.
	Status(ctx context.Context, email, ip string) (string, bool, error)
}
