package recurrence

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/planora/libplanora/planner/storage"
)

// Engine expands task definitions and their exceptions into concrete
// occurrences. It is a pure computation over in-memory inputs: no I/O, no
// shared mutable state beyond the optional rule cache, safe for concurrent
// Expand calls.
type Engine struct {
	evaluator RuleEvaluator
	cache     *RuleCache
	config    EngineConfig
	logger    *slog.Logger
}

// NewEngine creates a new expansion engine with default configuration
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// Close releases the rule cache, if any
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Expand computes every occurrence of the given tasks that falls inside
// [rangeStart, rangeEnd), with exceptions applied, sorted ascending by
// scheduled time. Ties keep input task order.
//
// Per-record failures (malformed tasks or exceptions, unevaluable rules) are
// logged and skipped; they never fail the call. The error return is reserved
// for caller programming errors: an invalid range yields an empty result plus
// a diagnostic so one bad view request cannot take down concurrent ones.
func (e *Engine) Expand(
	tasks []storage.TaskDefinition,
	exceptions []storage.TaskException,
	rangeStart, rangeEnd time.Time,
) ([]Instance, error) {
	if rangeStart.IsZero() || rangeEnd.IsZero() || rangeEnd.Before(rangeStart) {
		e.logger.Error("invalid expansion range",
			"range_start", rangeStart,
			"range_end", rangeEnd)
		return []Instance{}, fmt.Errorf("invalid expansion range [%v, %v)", rangeStart, rangeEnd)
	}

	index := buildExceptionIndex(exceptions, e.logger)

	instances := make([]Instance, 0)
	for i := range tasks {
		task := &tasks[i]

		if task.ID == "" || task.DtStart.IsZero() || task.Timezone == "" {
			e.logger.Warn("skipping task with missing required fields",
				"task_id", task.ID,
				"title", task.Title)
			continue
		}

		if task.RRule == "" {
			if inst, ok := e.singleOccurrence(task, index, rangeStart, rangeEnd); ok {
				instances = append(instances, inst)
			}
			continue
		}

		expanded, err := e.recurringOccurrences(task, index, rangeStart, rangeEnd)
		if err != nil {
			e.logger.Warn("skipping task with unevaluable recurrence rule",
				"task_id", task.ID,
				"rrule", task.RRule,
				"error", err)
			continue
		}
		instances = append(instances, expanded...)
	}

	// Stable sort: tasks whose occurrences land on the same instant keep
	// input order, so identical inputs always produce identical output.
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].ScheduledTime.Before(instances[j].ScheduledTime)
	})

	return instances, nil
}

// singleOccurrence handles a task with no recurrence rule: it contributes at
// most one occurrence, at DtStart, if that instant lies inside the half-open
// window.
func (e *Engine) singleOccurrence(
	task *storage.TaskDefinition,
	index exceptionIndex,
	rangeStart, rangeEnd time.Time,
) (Instance, bool) {
	start := task.DtStart
	if start.Before(rangeStart) || !start.Before(rangeEnd) {
		return Instance{}, false
	}

	return mergeInstance(task, start, index.lookup(task.ID, start))
}

// recurringOccurrences evaluates the task's rule over the window and emits an
// instance per non-cancelled occurrence. Each generated instant is looked up
// against the exception index by its canonical key.
func (e *Engine) recurringOccurrences(
	task *storage.TaskDefinition,
	index exceptionIndex,
	rangeStart, rangeEnd time.Time,
) ([]Instance, error) {
	occurrences, err := e.evaluator.OccurrencesBetween(task.RRule, task.DtStart, rangeStart, rangeEnd, true)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate recurrence rule: %w", err)
	}

	if limit := e.config.MaxOccurrencesPerTask; len(occurrences) > limit {
		e.logger.Warn("truncating expansion at occurrence cap",
			"task_id", task.ID,
			"cap", limit)
		occurrences = occurrences[:limit]
	}

	instances := make([]Instance, 0, len(occurrences))
	for _, occurrence := range occurrences {
		// The evaluator may include an occurrence exactly at rangeEnd; the
		// window is half-open, so drop it here.
		if !occurrence.Before(rangeEnd) {
			continue
		}

		if inst, ok := mergeInstance(task, occurrence, index.lookup(task.ID, occurrence)); ok {
			instances = append(instances, inst)
		}
	}

	return instances, nil
}
