// memory based implementation for testing purposes
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planora/libplanora/internal/timeutil"
	"github.com/planora/libplanora/planner/storage"
)

// Store implements storage.Store using in-memory maps
type Store struct {
	mu         sync.RWMutex
	tasks      map[string]*storage.TaskDefinition // key: ownerID/taskID
	exceptions map[string]*storage.TaskException  // key: ownerID/exceptionID
	// occurrenceKeys enforces the natural key: at most one exception per
	// (task, original occurrence time). key: ownerID/taskID/instantKey,
	// value: exception ID.
	occurrenceKeys map[string]string
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		tasks:          make(map[string]*storage.TaskDefinition),
		exceptions:     make(map[string]*storage.TaskException),
		occurrenceKeys: make(map[string]string),
	}
}

func (s *Store) taskKey(ownerID, taskID string) string {
	return fmt.Sprintf("%s/%s", ownerID, taskID)
}

func (s *Store) exceptionKey(ownerID, exceptionID string) string {
	return fmt.Sprintf("%s/%s", ownerID, exceptionID)
}

func (s *Store) occurrenceKey(ownerID, taskID string, original time.Time) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, taskID, timeutil.InstantKey(original))
}

// Task operations

func (s *Store) GetTask(_ context.Context, ownerID, taskID string) (*storage.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[s.taskKey(ownerID, taskID)]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	return task, nil
}

func (s *Store) ListTasks(_ context.Context, ownerID string, opts *storage.ListOptions) ([]*storage.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*storage.TaskDefinition
	for _, task := range s.tasks {
		if task.OwnerID == ownerID && opts.Matches(task) {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

func (s *Store) CreateTask(_ context.Context, task *storage.TaskDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	key := s.taskKey(task.OwnerID, task.ID)
	if _, exists := s.tasks[key]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "task already exists",
		}
	}

	now := time.Now()
	task.Created = now
	task.Modified = now
	s.tasks[key] = task

	return nil
}

func (s *Store) UpdateTask(_ context.Context, task *storage.TaskDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.taskKey(task.OwnerID, task.ID)
	if _, exists := s.tasks[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	task.Modified = time.Now()
	s.tasks[key] = task

	return nil
}

func (s *Store) DeleteTask(_ context.Context, ownerID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.taskKey(ownerID, taskID)
	if _, exists := s.tasks[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "task not found",
		}
	}

	delete(s.tasks, key)

	// Delete all exceptions attached to this task
	for exKey, ex := range s.exceptions {
		if ex.TaskID == taskID {
			delete(s.exceptions, exKey)
			delete(s.occurrenceKeys, s.occurrenceKey(ownerID, taskID, ex.OriginalOccurrenceTime))
		}
	}

	return nil
}

// Exception operations

func (s *Store) GetException(_ context.Context, ownerID, exceptionID string) (*storage.TaskException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ex, ok := s.exceptions[s.exceptionKey(ownerID, exceptionID)]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "exception not found",
		}
	}

	return ex, nil
}

func (s *Store) ListExceptions(_ context.Context, ownerID, taskID string) ([]*storage.TaskException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exceptions []*storage.TaskException
	for key, ex := range s.exceptions {
		if !strings.HasPrefix(key, ownerID+"/") {
			continue
		}
		if taskID != "" && ex.TaskID != taskID {
			continue
		}
		exceptions = append(exceptions, ex)
	}

	return exceptions, nil
}

func (s *Store) CreateException(_ context.Context, ex *storage.TaskException) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ex.TaskID == "" || ex.OriginalOccurrenceTime.IsZero() {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "exception requires task_id and original_occurrence_time",
		}
	}

	owner, err := s.ownerOfTask(ex.TaskID)
	if err != nil {
		return err
	}

	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}

	key := s.exceptionKey(owner, ex.ID)
	if _, exists := s.exceptions[key]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "exception already exists",
		}
	}

	occKey := s.occurrenceKey(owner, ex.TaskID, ex.OriginalOccurrenceTime)
	if _, exists := s.occurrenceKeys[occKey]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "occurrence already has an exception",
		}
	}

	now := time.Now()
	ex.Created = now
	ex.Modified = now
	s.exceptions[key] = ex
	s.occurrenceKeys[occKey] = ex.ID

	return nil
}

func (s *Store) UpdateException(_ context.Context, ex *storage.TaskException) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.ownerOfTask(ex.TaskID)
	if err != nil {
		return err
	}

	key := s.exceptionKey(owner, ex.ID)
	if _, exists := s.exceptions[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "exception not found",
		}
	}

	// Keep the natural-key index in step if the original time moved. The
	// caller may hand back the stored record itself, so the old key is
	// recovered from the index rather than the (possibly mutated) record.
	newKey := s.occurrenceKey(owner, ex.TaskID, ex.OriginalOccurrenceTime)
	oldKey := ""
	for k, id := range s.occurrenceKeys {
		if id == ex.ID {
			oldKey = k
			break
		}
	}
	if oldKey != newKey {
		if _, taken := s.occurrenceKeys[newKey]; taken {
			return &storage.Error{
				Type:    storage.ErrAlreadyExists,
				Message: "occurrence already has an exception",
			}
		}
		if oldKey != "" {
			delete(s.occurrenceKeys, oldKey)
		}
		s.occurrenceKeys[newKey] = ex.ID
	}

	ex.Modified = time.Now()
	s.exceptions[key] = ex

	return nil
}

func (s *Store) DeleteException(_ context.Context, ownerID, exceptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.exceptionKey(ownerID, exceptionID)
	ex, exists := s.exceptions[key]
	if !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "exception not found",
		}
	}

	delete(s.exceptions, key)
	delete(s.occurrenceKeys, s.occurrenceKey(ownerID, ex.TaskID, ex.OriginalOccurrenceTime))

	return nil
}

// ownerOfTask resolves the owner of a task. Callers must hold the lock.
func (s *Store) ownerOfTask(taskID string) (string, error) {
	for _, task := range s.tasks {
		if task.ID == taskID {
			return task.OwnerID, nil
		}
	}
	return "", &storage.Error{
		Type:    storage.ErrNotFound,
		Message: "task not found",
	}
}
