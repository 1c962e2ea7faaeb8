// Package ics converts between iCalendar data and the planner's task and
// exception records. Recurring series map onto components carrying an RRULE;
// per-occurrence overrides map onto components carrying a RECURRENCE-ID, the
// same identity the expansion engine joins exceptions on.
package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"

	"github.com/planora/libplanora/internal/timeutil"
	"github.com/planora/libplanora/planner/storage"
)

const (
	productID = "-//Planora//libplanora//EN"

	// Components without DURATION or DTEND fall back to this.
	defaultDurationMinutes = 30
)

// FromCalendar extracts task definitions and exceptions from a parsed
// calendar. Components missing a UID or a usable start time are skipped;
// partially usable input never fails the whole conversion.
func FromCalendar(cal *ical.Calendar, ownerID string) ([]storage.TaskDefinition, []storage.TaskException) {
	var tasks []storage.TaskDefinition
	var exceptions []storage.TaskException

	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent && comp.Name != ical.CompToDo {
			continue
		}

		uidProp := comp.Props.Get(ical.PropUID)
		if uidProp == nil || uidProp.Value == "" {
			continue
		}
		uid := uidProp.Value

		if comp.Props.Get("RECURRENCE-ID") != nil {
			if ex, ok := exceptionFromComponent(comp, uid); ok {
				exceptions = append(exceptions, ex)
			}
			continue
		}

		if task, ok := taskFromComponent(comp, uid, ownerID); ok {
			tasks = append(tasks, task)
		}
	}

	return tasks, exceptions
}

func taskFromComponent(comp *ical.Component, uid, ownerID string) (storage.TaskDefinition, bool) {
	// go-ical reports a missing property as a zero time with no error.
	dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil || dtstart.IsZero() {
		return storage.TaskDefinition{}, false
	}

	task := storage.TaskDefinition{
		ID:              uid,
		OwnerID:         ownerID,
		DtStart:         dtstart,
		DurationMinutes: componentDurationMinutes(comp, dtstart),
		Timezone:        componentTimezone(comp),
		Status:          storage.StatusActive,
	}

	if summary := comp.Props.Get(ical.PropSummary); summary != nil {
		task.Title = summary.Value
	}
	if rule := comp.Props.Get(ical.PropRecurrenceRule); rule != nil {
		task.RRule = rule.Value
	}
	if status := comp.Props.Get(ical.PropStatus); status != nil && status.Value == "COMPLETED" {
		task.Status = storage.StatusCompleted
	}

	return task, true
}

func exceptionFromComponent(comp *ical.Component, uid string) (storage.TaskException, bool) {
	original, err := comp.Props.DateTime("RECURRENCE-ID", nil)
	if err != nil || original.IsZero() {
		return storage.TaskException{}, false
	}

	ex := storage.TaskException{
		ID:                     timeutil.CompositeID(uid, original),
		TaskID:                 uid,
		OriginalOccurrenceTime: original,
	}

	if status := comp.Props.Get(ical.PropStatus); status != nil && status.Value == "CANCELLED" {
		ex.IsCancelled = true
		return ex, true
	}

	if start, err := comp.Props.DateTime(ical.PropDateTimeStart, nil); err == nil && !start.IsZero() && !timeutil.SameInstant(start, original) {
		ex.NewStartTime = mo.Some(start)
	}
	if summary := comp.Props.Get(ical.PropSummary); summary != nil {
		ex.OverrideTitle = mo.Some(summary.Value)
	}
	if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
		if duration, err := durationProp.Duration(); err == nil {
			ex.NewDurationMinutes = mo.Some(int(duration / time.Minute))
		}
	}
	if completed, err := comp.Props.DateTime("COMPLETED", nil); err == nil && !completed.IsZero() {
		ex.IsComplete = true
		ex.CompletionTime = &completed
	}

	return ex, true
}

func componentDurationMinutes(comp *ical.Component, dtstart time.Time) int {
	if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
		if duration, err := durationProp.Duration(); err == nil && duration > 0 {
			return int(duration / time.Minute)
		}
	}
	if dtend, err := comp.Props.DateTime(ical.PropDateTimeEnd, nil); err == nil && dtend.After(dtstart) {
		return int(dtend.Sub(dtstart) / time.Minute)
	}
	return defaultDurationMinutes
}

func componentTimezone(comp *ical.Component) string {
	if dtstartProp := comp.Props.Get(ical.PropDateTimeStart); dtstartProp != nil {
		if tzids := dtstartProp.Params["TZID"]; len(tzids) > 0 && tzids[0] != "" {
			return tzids[0]
		}
	}
	return "UTC"
}

// ToCalendar renders tasks and exceptions back into a calendar suitable for
// encoding as an .ics stream.
func ToCalendar(tasks []storage.TaskDefinition, exceptions []storage.TaskException) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, task := range tasks {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, task.ID)
		event.Props.SetText(ical.PropSummary, task.Title)
		event.Props.SetDateTime(ical.PropDateTimeStart, task.DtStart)
		setDuration(event.Props, task.DurationMinutes)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stampFor(task.Modified))
		if task.RRule != "" {
			event.Props.SetText(ical.PropRecurrenceRule, task.RRule)
		}
		if task.Status == storage.StatusCompleted {
			event.Props.SetText(ical.PropStatus, "COMPLETED")
		}
		cal.Children = append(cal.Children, event.Component)
	}

	for _, ex := range exceptions {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, ex.TaskID)
		event.Props.SetDateTime("RECURRENCE-ID", ex.OriginalOccurrenceTime)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stampFor(ex.Modified))

		if ex.IsCancelled {
			event.Props.SetDateTime(ical.PropDateTimeStart, ex.OriginalOccurrenceTime)
			event.Props.SetText(ical.PropStatus, "CANCELLED")
			cal.Children = append(cal.Children, event.Component)
			continue
		}

		start := ex.OriginalOccurrenceTime
		if moved, ok := ex.NewStartTime.Get(); ok {
			start = moved
		}
		event.Props.SetDateTime(ical.PropDateTimeStart, start)

		if title, ok := ex.OverrideTitle.Get(); ok {
			event.Props.SetText(ical.PropSummary, title)
		}
		if duration, ok := ex.NewDurationMinutes.Get(); ok {
			setDuration(event.Props, duration)
		}
		if ex.IsComplete && ex.CompletionTime != nil {
			event.Props.SetDateTime("COMPLETED", *ex.CompletionTime)
		}

		cal.Children = append(cal.Children, event.Component)
	}

	return cal
}

// ParseICS decodes an .ics document into task and exception records.
func ParseICS(ics, ownerID string) ([]storage.TaskDefinition, []storage.TaskException, error) {
	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	tasks, exceptions := FromCalendar(cal, ownerID)
	return tasks, exceptions, nil
}

// EncodeICS renders tasks and exceptions as an .ics document.
func EncodeICS(tasks []storage.TaskDefinition, exceptions []storage.TaskException) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(ToCalendar(tasks, exceptions)); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

func minutesToDuration(minutes int) string {
	return fmt.Sprintf("PT%dM", minutes)
}

// setDuration writes a DURATION property typed as a duration value.
// Props.SetText would tag it VALUE=TEXT, which the decoder rejects.
func setDuration(props ical.Props, minutes int) {
	prop := ical.NewProp(ical.PropDuration)
	prop.Value = minutesToDuration(minutes)
	prop.SetValueType(ical.ValueDuration)
	props.Set(prop)
}

func stampFor(modified time.Time) time.Time {
	if modified.IsZero() {
		return time.Now().UTC()
	}
	return modified
}
