package storage

import (
	"strings"
	"time"
)

// ListOptions narrows a ListTasks call. A nil ListOptions matches everything.
type ListOptions struct {
	// Time range filter on DtStart. Recurring tasks anchored before Start may
	// still produce occurrences inside the window, so backends only apply
	// this to non-recurring tasks.
	Start *time.Time
	End   *time.Time

	// Statuses limits results to the given lifecycle states.
	Statuses []TaskStatus

	// TitleContains is a case-insensitive substring match on the title.
	TitleContains string
}

// Matches reports whether task passes the filter.
func (o *ListOptions) Matches(task *TaskDefinition) bool {
	if o == nil {
		return true
	}

	if len(o.Statuses) > 0 {
		found := false
		for _, s := range o.Statuses {
			if task.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if o.TitleContains != "" &&
		!strings.Contains(strings.ToLower(task.Title), strings.ToLower(o.TitleContains)) {
		return false
	}

	// Only anchor-based range filtering here; recurring tasks must survive
	// the filter regardless of where their anchor sits.
	if task.RRule == "" {
		if o.Start != nil && task.DtStart.Before(*o.Start) {
			return false
		}
		if o.End != nil && !task.DtStart.Before(*o.End) {
			return false
		}
	}

	return true
}
