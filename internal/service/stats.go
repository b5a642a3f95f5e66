package service

import (
	"math"
	"time"

	"github.com/taskboard-hq/taskboard/internal/models"
)

// The aggregator computes read-only figures from a live collection.
// Every function here is pure: same input, same output, no caching.
// Callers that need memoization must invalidate on every mutation that
// touches the source collection.

type SubtaskStatsResult struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	Todo           int `json:"todo"`
	CompletionRate int `json:"completion_rate"`
}

// SubtaskStats tallies a task's subtasks by status.
func SubtaskStats(subtasks []models.Subtask) SubtaskStatsResult {
	stats := SubtaskStatsResult{Total: len(subtasks)}

	for _, s := range subtasks {
		switch s.Status {
		case models.SubtaskStatusDone:
			stats.Completed++
		case models.SubtaskStatusInProgress:
			stats.InProgress++
		default:
			stats.Todo++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}

	return stats
}

// DerivedTaskStatus computes a parent task's status from its subtasks:
// done when every subtask is done and there is at least one, in_progress
// when any subtask is in progress, todo otherwise.
func DerivedTaskStatus(subtasks []models.Subtask) models.TaskStatus {
	if len(subtasks) == 0 {
		return models.TaskStatusTodo
	}

	allDone := true
	anyInProgress := false
	for _, s := range subtasks {
		if s.Status != models.SubtaskStatusDone {
			allDone = false
		}
		if s.Status == models.SubtaskStatusInProgress {
			anyInProgress = true
		}
	}

	if allDone {
		return models.TaskStatusDone
	}
	if anyInProgress {
		return models.TaskStatusInProgress
	}
	return models.TaskStatusTodo
}

type ProjectStatsResult struct {
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	InProgressTasks    int     `json:"in_progress_tasks"`
	TodoTasks          int     `json:"todo_tasks"`
	CompletionRate     int     `json:"completion_rate"`
	OverdueCount       int     `json:"overdue_count"`
	DueThisWeek        int     `json:"due_this_week"`
	ProgressPercentage int     `json:"progress_percentage"`
	EstimatedHours     float64 `json:"estimated_hours"`
	ActualHours        float64 `json:"actual_hours"`
}

// ProjectStats aggregates a project's tasks. Archived tasks are not
// part of the active picture and are skipped entirely. now anchors the
// overdue and due-this-week windows.
func ProjectStats(tasks []models.Task, now time.Time) ProjectStatsResult {
	var stats ProjectStatsResult
	weekAhead := now.Add(7 * 24 * time.Hour)

	for _, t := range tasks {
		if t.Status == models.TaskStatusArchived {
			continue
		}

		stats.TotalTasks++
		switch t.Status {
		case models.TaskStatusDone:
			stats.CompletedTasks++
		case models.TaskStatusInProgress:
			stats.InProgressTasks++
		default:
			stats.TodoTasks++
		}

		if t.DueDate != nil {
			if t.DueDate.Before(now) && t.Status != models.TaskStatusDone {
				stats.OverdueCount++
			}
			if !t.DueDate.Before(now) && !t.DueDate.After(weekAhead) {
				stats.DueThisWeek++
			}
		}

		if t.EstimatedHours != nil {
			stats.EstimatedHours += *t.EstimatedHours
		}
		if t.ActualHours != nil {
			stats.ActualHours += *t.ActualHours
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100))
		weighted := float64(stats.CompletedTasks) + float64(stats.InProgressTasks)*0.5
		stats.ProgressPercentage = int(math.Round(weighted / float64(stats.TotalTasks) * 100))
	}

	return stats
}
