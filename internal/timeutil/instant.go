// Package timeutil owns the canonical instant formatting shared by the
// exception index and the occurrence generators. Both sides of the
// exception join must go through InstantKey, never through ad-hoc
// formatting.
package timeutil

import (
	"fmt"
	"time"
)

// InstantKey renders t as the canonical UTC RFC 3339 string used to match
// regenerated occurrence instants against stored exception keys. Fractional
// seconds are dropped so that formatting drift between the writer of an
// exception and the rule evaluator cannot break the match.
func InstantKey(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// SameInstant reports whether a and b denote the same absolute instant at
// second precision, regardless of location.
func SameInstant(a, b time.Time) bool {
	return a.UTC().Truncate(time.Second).Equal(b.UTC().Truncate(time.Second))
}

// CompositeID builds the deterministic instance identifier for an occurrence
// that has no exception record of its own.
func CompositeID(taskID string, original time.Time) string {
	return fmt.Sprintf("%s-%s", taskID, InstantKey(original))
}
