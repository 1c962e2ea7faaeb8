package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// TaskStatus is the lifecycle state of a task series. The expansion engine
// ignores it; callers filter by status before expanding.
type TaskStatus string

const (
	StatusActive    TaskStatus = "active"
	StatusPaused    TaskStatus = "paused"
	StatusCompleted TaskStatus = "completed"
	StatusArchived  TaskStatus = "archived"
)

// TaskDefinition represents a recurring or single task series.
type TaskDefinition struct {
	ID      string
	OwnerID string
	Title   string

	// DtStart anchors the series. It is an absolute instant; Timezone below
	// only labels the zone the series is presented in.
	DtStart         time.Time
	DurationMinutes int

	// RRule is the RFC 5545 recurrence rule body (without the "RRULE:"
	// prefix). Empty means a single occurrence at DtStart.
	RRule string

	IconName string
	Timezone string // IANA zone name, e.g. "Europe/Berlin"
	Status   TaskStatus

	Created  time.Time
	Modified time.Time
}

// TaskException overrides or cancels exactly one occurrence of a task.
// OriginalOccurrenceTime is the unmodified instant the occurrence would have
// had; it is the join key, never the overridden time. At most one exception
// exists per (TaskID, OriginalOccurrenceTime) pair.
type TaskException struct {
	ID                     string
	TaskID                 string
	OriginalOccurrenceTime time.Time

	// Override fields. Option distinguishes "absent" from an explicit zero
	// value, which matters for duration overrides.
	NewStartTime       mo.Option[time.Time]
	NewDurationMinutes mo.Option[int]
	OverrideTitle      mo.Option[string]
	IconName           mo.Option[string]

	// IsCancelled suppresses the occurrence entirely; the override fields
	// above are ignored on a cancelled exception.
	IsCancelled bool

	IsComplete     bool
	CompletionTime *time.Time

	Created  time.Time
	Modified time.Time
}

// Store is the interface the persistence collaborator implements. The
// expansion engine never touches it directly; callers load records and hand
// them to the engine.
type Store interface {
	// Task operations
	GetTask(ctx context.Context, ownerID, taskID string) (*TaskDefinition, error)
	ListTasks(ctx context.Context, ownerID string, opts *ListOptions) ([]*TaskDefinition, error)
	CreateTask(ctx context.Context, task *TaskDefinition) error
	UpdateTask(ctx context.Context, task *TaskDefinition) error
	DeleteTask(ctx context.Context, ownerID, taskID string) error

	// Exception operations. ListExceptions with an empty taskID returns all
	// exceptions for the owner.
	GetException(ctx context.Context, ownerID, exceptionID string) (*TaskException, error)
	ListExceptions(ctx context.Context, ownerID, taskID string) ([]*TaskException, error)
	CreateException(ctx context.Context, ex *TaskException) error
	UpdateException(ctx context.Context, ex *TaskException) error
	DeleteException(ctx context.Context, ownerID, exceptionID string) error
}
