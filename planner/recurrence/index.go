package recurrence

import (
	"log/slog"
	"time"

	"github.com/planora/libplanora/internal/timeutil"
	"github.com/planora/libplanora/planner/storage"
)

// exceptionIndex maps task ID, then canonical original-occurrence key, to the
// exception overriding that occurrence. Built once per Expand call and never
// mutated afterwards.
type exceptionIndex map[string]map[string]*storage.TaskException

// buildExceptionIndex turns the flat exception list into the two-level lookup
// map. Records missing the task ID or original occurrence time are skipped;
// malformed data must not abort expansion for all tasks. If two exceptions
// collide on the same key, the later one in input order wins.
func buildExceptionIndex(exceptions []storage.TaskException, logger *slog.Logger) exceptionIndex {
	idx := make(exceptionIndex)

	for i := range exceptions {
		ex := &exceptions[i]
		if ex.TaskID == "" || ex.OriginalOccurrenceTime.IsZero() {
			logger.Warn("skipping malformed exception",
				"exception_id", ex.ID,
				"task_id", ex.TaskID)
			continue
		}

		byTime, ok := idx[ex.TaskID]
		if !ok {
			byTime = make(map[string]*storage.TaskException)
			idx[ex.TaskID] = byTime
		}

		byTime[timeutil.InstantKey(ex.OriginalOccurrenceTime)] = ex
	}

	return idx
}

// lookup returns the exception for the given task and original instant, or
// nil. The instant is canonicalized with the same function used when the
// index was built, so the join cannot drift on formatting.
func (idx exceptionIndex) lookup(taskID string, original time.Time) *storage.TaskException {
	byTime, ok := idx[taskID]
	if !ok {
		return nil
	}
	return byTime[timeutil.InstantKey(original)]
}
