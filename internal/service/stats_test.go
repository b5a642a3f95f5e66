package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taskboard-hq/taskboard/internal/models"
)

func subtask(status models.SubtaskStatus) models.Subtask {
	return models.Subtask{Title: "sub", Status: status}
}

func TestSubtaskStats(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []models.Subtask
		expected SubtaskStatsResult
	}{
		{
			name:     "empty list",
			subtasks: nil,
			expected: SubtaskStatsResult{},
		},
		{
			name: "all done",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusDone),
			},
			expected: SubtaskStatsResult{Total: 2, Completed: 2, CompletionRate: 100},
		},
		{
			name: "mixed",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusInProgress),
				subtask(models.SubtaskStatusTodo),
			},
			expected: SubtaskStatsResult{Total: 3, Completed: 1, InProgress: 1, Todo: 1, CompletionRate: 33},
		},
		{
			name: "one of three done rounds to 33",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusTodo),
				subtask(models.SubtaskStatusTodo),
			},
			expected: SubtaskStatsResult{Total: 3, Completed: 1, Todo: 2, CompletionRate: 33},
		},
		{
			name: "two of three done rounds to 67",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusTodo),
			},
			expected: SubtaskStatsResult{Total: 3, Completed: 2, Todo: 1, CompletionRate: 67},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubtaskStats(tt.subtasks))
		})
	}
}

func TestDerivedTaskStatus(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []models.Subtask
		expected models.TaskStatus
	}{
		{
			name:     "empty list is todo",
			subtasks: nil,
			expected: models.TaskStatusTodo,
		},
		{
			name: "all done",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusDone),
			},
			expected: models.TaskStatusDone,
		},
		{
			name: "any in progress",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusTodo),
				subtask(models.SubtaskStatusInProgress),
			},
			expected: models.TaskStatusInProgress,
		},
		{
			name: "done plus in progress is in progress",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusInProgress),
			},
			expected: models.TaskStatusInProgress,
		},
		{
			name: "all todo",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusTodo),
				subtask(models.SubtaskStatusTodo),
			},
			expected: models.TaskStatusTodo,
		},
		{
			name: "done plus todo is todo",
			subtasks: []models.Subtask{
				subtask(models.SubtaskStatusDone),
				subtask(models.SubtaskStatusTodo),
			},
			expected: models.TaskStatusTodo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DerivedTaskStatus(tt.subtasks))
		})
	}
}

func TestProjectStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	inThreeDays := now.Add(3 * 24 * time.Hour)
	inTenDays := now.Add(10 * 24 * time.Hour)
	hours := func(v float64) *float64 { return &v }

	t.Run("empty task list", func(t *testing.T) {
		stats := ProjectStats(nil, now)
		assert.Equal(t, ProjectStatsResult{}, stats)
	})

	t.Run("all done", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusDone},
			{Status: models.TaskStatusDone},
		}
		stats := ProjectStats(tasks, now)
		assert.Equal(t, 2, stats.TotalTasks)
		assert.Equal(t, 2, stats.CompletedTasks)
		assert.Equal(t, 100, stats.CompletionRate)
		assert.Equal(t, 100, stats.ProgressPercentage)
	})

	t.Run("in progress counts half toward progress", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusDone},
			{Status: models.TaskStatusInProgress},
		}
		stats := ProjectStats(tasks, now)
		assert.Equal(t, 50, stats.CompletionRate)
		assert.Equal(t, 75, stats.ProgressPercentage)
	})

	t.Run("archived tasks excluded", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusDone},
			{Status: models.TaskStatusArchived},
		}
		stats := ProjectStats(tasks, now)
		assert.Equal(t, 1, stats.TotalTasks)
		assert.Equal(t, 100, stats.CompletionRate)
	})

	t.Run("overdue and due this week", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusTodo, DueDate: &yesterday},
			{Status: models.TaskStatusDone, DueDate: &yesterday},
			{Status: models.TaskStatusTodo, DueDate: &inThreeDays},
			{Status: models.TaskStatusTodo, DueDate: &inTenDays},
		}
		stats := ProjectStats(tasks, now)
		assert.Equal(t, 1, stats.OverdueCount, "done tasks are never overdue")
		assert.Equal(t, 1, stats.DueThisWeek)
	})

	t.Run("hour sums treat missing fields as zero", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusTodo, EstimatedHours: hours(4), ActualHours: hours(2)},
			{Status: models.TaskStatusTodo, EstimatedHours: hours(3.5)},
			{Status: models.TaskStatusTodo},
		}
		stats := ProjectStats(tasks, now)
		assert.Equal(t, 7.5, stats.EstimatedHours)
		assert.Equal(t, 2.0, stats.ActualHours)
	})

	t.Run("pure function, same input same output", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusDone, DueDate: &inThreeDays},
			{Status: models.TaskStatusInProgress},
		}
		first := ProjectStats(tasks, now)
		second := ProjectStats(tasks, now)
		assert.Equal(t, first, second)
	})
}
