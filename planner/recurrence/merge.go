package recurrence

import (
	"time"

	"github.com/planora/libplanora/internal/timeutil"
	"github.com/planora/libplanora/planner/storage"
)

// mergeInstance combines a base occurrence (task + original instant) with its
// matching exception, if any, into the final Instance. Returns false when the
// occurrence is cancelled and nothing should be emitted.
//
// Override precedence, in order: cancellation suppresses; the exception ID
// replaces the composite ID; NewStartTime moves only the scheduled time;
// NewDurationMinutes replaces the duration even when it is explicitly zero;
// OverrideTitle replaces the title; completion state comes from the exception
// when one exists. Timezone always comes from the parent definition.
func mergeInstance(task *storage.TaskDefinition, original time.Time, ex *storage.TaskException) (Instance, bool) {
	if ex != nil && ex.IsCancelled {
		return Instance{}, false
	}

	inst := Instance{
		ID:              timeutil.CompositeID(task.ID, original),
		TaskID:          task.ID,
		OriginalTime:    original.UTC(),
		ScheduledTime:   original.UTC(),
		DurationMinutes: task.DurationMinutes,
		Title:           task.Title,
		IconName:        task.IconName,
		Timezone:        task.Timezone,
	}

	if ex == nil {
		return inst, true
	}

	if ex.ID != "" {
		inst.ID = ex.ID
	}
	if start, ok := ex.NewStartTime.Get(); ok {
		inst.ScheduledTime = start.UTC()
	}
	if duration, ok := ex.NewDurationMinutes.Get(); ok {
		inst.DurationMinutes = duration
	}
	if title, ok := ex.OverrideTitle.Get(); ok {
		inst.Title = title
	}
	if icon, ok := ex.IconName.Get(); ok {
		inst.IconName = icon
	}

	inst.IsComplete = ex.IsComplete
	inst.CompletionTime = ex.CompletionTime

	return inst, true
}
