package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListOptions_Matches(t *testing.T) {
	anchor := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	single := &TaskDefinition{ID: "t1", Title: "Morning run", DtStart: anchor, Status: StatusActive}
	recurring := &TaskDefinition{ID: "t2", Title: "Standup", DtStart: anchor, RRule: "FREQ=DAILY", Status: StatusPaused}

	tests := []struct {
		name     string
		opts     *ListOptions
		task     *TaskDefinition
		expected bool
	}{
		{
			name:     "nil options match everything",
			opts:     nil,
			task:     single,
			expected: true,
		},
		{
			name:     "status filter hit",
			opts:     &ListOptions{Statuses: []TaskStatus{StatusActive}},
			task:     single,
			expected: true,
		},
		{
			name:     "status filter miss",
			opts:     &ListOptions{Statuses: []TaskStatus{StatusActive}},
			task:     recurring,
			expected: false,
		},
		{
			name:     "title match is case-insensitive",
			opts:     &ListOptions{TitleContains: "morning"},
			task:     single,
			expected: true,
		},
		{
			name:     "non-recurring task outside range is filtered",
			opts:     &ListOptions{Start: &windowStart, End: &windowEnd},
			task:     single,
			expected: false,
		},
		{
			name:     "recurring task survives range filter regardless of anchor",
			opts:     &ListOptions{Start: &windowStart, End: &windowEnd},
			task:     recurring,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opts.Matches(tt.task))
		})
	}
}
