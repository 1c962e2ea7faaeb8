package recurrence

import (
	"time"
)

// Instance is one concrete, display-ready occurrence of a task. Instances are
// recomputed on every Expand call and never persisted.
type Instance struct {
	// ID is the matching exception's ID when one applied, otherwise a
	// deterministic composite of the task ID and the original instant.
	ID     string
	TaskID string

	// OriginalTime is the unmodified instant the series produced, in UTC.
	// It stays fixed even when an exception reschedules the occurrence.
	OriginalTime time.Time

	// ScheduledTime is where the occurrence actually lands, in UTC. Equal to
	// OriginalTime unless an exception overrode the start.
	ScheduledTime time.Time

	DurationMinutes int
	Title           string

	IsComplete     bool
	CompletionTime *time.Time

	// IsCancelled is always false on emitted instances; cancelled occurrences
	// are filtered out before emission.
	IsCancelled bool

	IconName string
	Timezone string // copied from the parent task definition
}

// RuleEvaluator enumerates the instants a textual recurrence rule produces.
// It is the only seam to the rule library; swapping the grammar or library
// never touches the index/merge logic.
type RuleEvaluator interface {
	// OccurrencesBetween returns the occurrence instants of rule, anchored at
	// anchor, that fall between start and end. startInclusive controls
	// whether an occurrence exactly at start is returned. Implementations may
	// include an occurrence exactly at end; the engine re-checks the upper
	// bound itself.
	OccurrencesBetween(rule string, anchor, start, end time.Time, startInclusive bool) ([]time.Time, error)
}
