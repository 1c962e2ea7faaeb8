// Command example seeds an in-memory store with a small week of tasks and
// prints the expanded agenda for January 2024.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samber/mo"

	"github.com/planora/libplanora/planner/recurrence"
	"github.com/planora/libplanora/planner/storage"
	"github.com/planora/libplanora/planner/storage/memory"
)

const ownerID = "demo"

func main() {
	ctx := context.Background()
	store := setupStore(ctx)

	tasks, err := store.ListTasks(ctx, ownerID, &storage.ListOptions{
		Statuses: []storage.TaskStatus{storage.StatusActive},
	})
	if err != nil {
		log.Fatalf("listing tasks: %v", err)
	}
	exceptions, err := store.ListExceptions(ctx, ownerID, "")
	if err != nil {
		log.Fatalf("listing exceptions: %v", err)
	}

	config := recurrence.DefaultEngineConfig
	config.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	engine := recurrence.NewEngineWithConfig(config)
	defer engine.Close()

	instances, err := engine.Expand(
		deref(tasks), deref(exceptions),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		log.Fatalf("expanding: %v", err)
	}

	fmt.Printf("Agenda for January 2024 (%d items):\n", len(instances))
	for _, inst := range instances {
		marker := " "
		if inst.IsComplete {
			marker = "x"
		}
		fmt.Printf("  [%s] %s  %-20s (%d min)\n",
			marker,
			inst.ScheduledTime.Format("Mon Jan 02 15:04"),
			inst.Title,
			inst.DurationMinutes)
	}
}

func setupStore(ctx context.Context) *memory.Store {
	store := memory.New()

	tasks := []*storage.TaskDefinition{
		{
			ID:              "standup",
			OwnerID:         ownerID,
			Title:           "Team standup",
			DtStart:         time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			DurationMinutes: 15,
			RRule:           "FREQ=WEEKLY;BYDAY=MO,WE,FR",
			IconName:        "people",
			Timezone:        "UTC",
			Status:          storage.StatusActive,
		},
		{
			ID:              "review",
			OwnerID:         ownerID,
			Title:           "Weekly review",
			DtStart:         time.Date(2024, 1, 5, 16, 0, 0, 0, time.UTC),
			DurationMinutes: 60,
			RRule:           "FREQ=WEEKLY",
			IconName:        "notebook",
			Timezone:        "UTC",
			Status:          storage.StatusActive,
		},
		{
			ID:              "dentist",
			OwnerID:         ownerID,
			Title:           "Dentist appointment",
			DtStart:         time.Date(2024, 1, 17, 11, 0, 0, 0, time.UTC),
			DurationMinutes: 45,
			IconName:        "tooth",
			Timezone:        "UTC",
			Status:          storage.StatusActive,
		},
	}
	for _, task := range tasks {
		if err := store.CreateTask(ctx, task); err != nil {
			log.Fatalf("seeding task %s: %v", task.ID, err)
		}
	}

	completedAt := time.Date(2024, 1, 3, 9, 12, 0, 0, time.UTC)
	exceptions := []*storage.TaskException{
		{
			// The Jan 8 standup is cancelled outright.
			TaskID:                 "standup",
			OriginalOccurrenceTime: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
			IsCancelled:            true,
		},
		{
			// The Jan 12 review moves to the afternoon.
			TaskID:                 "review",
			OriginalOccurrenceTime: time.Date(2024, 1, 12, 16, 0, 0, 0, time.UTC),
			NewStartTime:           mo.Some(time.Date(2024, 1, 12, 13, 30, 0, 0, time.UTC)),
			OverrideTitle:          mo.Some("Weekly review (moved up)"),
		},
		{
			// The Jan 3 standup already happened.
			TaskID:                 "standup",
			OriginalOccurrenceTime: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
			IsComplete:             true,
			CompletionTime:         &completedAt,
		},
	}
	for _, ex := range exceptions {
		if err := store.CreateException(ctx, ex); err != nil {
			log.Fatalf("seeding exception for %s: %v", ex.TaskID, err)
		}
	}

	return store
}

func deref[T any](ptrs []*T) []T {
	values := make([]T, 0, len(ptrs))
	for _, p := range ptrs {
		values = append(values, *p)
	}
	return values
}
