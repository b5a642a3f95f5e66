package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/internal/models"
	"github.com/taskboard-hq/taskboard/pkg/logger"
)

const (
	maxTaskTitleLen       = 100
	maxTaskDescriptionLen = 1000
	maxSubtaskTitleLen    = 100
)

type TaskService struct {
	db *database.Database
}

func NewTaskService(db *database.Database) *TaskService {
	return &TaskService{db: db}
}

type CreateTaskRequest struct {
	ProjectID      *uint               `json:"project_id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	AssigneeID     *uint               `json:"assignee_id"`
	DueDate        *time.Time          `json:"due_date"`
	EstimatedHours *float64            `json:"estimated_hours"`
	ActualHours    *float64            `json:"actual_hours"`
	Tags           []string            `json:"tags"`
}

type UpdateTaskRequest struct {
	Title          *string              `json:"title"`
	Description    *string              `json:"description"`
	Status         *models.TaskStatus   `json:"status"`
	Priority       *models.TaskPriority `json:"priority"`
	AssigneeID     *uint                `json:"assignee_id"`
	DueDate        *time.Time           `json:"due_date"`
	EstimatedHours *float64             `json:"estimated_hours"`
	ActualHours    *float64             `json:"actual_hours"`
	Tags           []string             `json:"tags"`
}

type SubtaskRequest struct {
	Title          string               `json:"title"`
	Status         models.SubtaskStatus `json:"status"`
	Priority       models.TaskPriority  `json:"priority"`
	DueDate        *time.Time           `json:"due_date"`
	EstimatedHours *float64             `json:"estimated_hours"`
	ActualHours    *float64             `json:"actual_hours"`
}

type UpdateSubtaskRequest struct {
	Title          *string               `json:"title"`
	Status         *models.SubtaskStatus `json:"status"`
	Priority       *models.TaskPriority  `json:"priority"`
	DueDate        *time.Time            `json:"due_date"`
	EstimatedHours *float64              `json:"estimated_hours"`
	ActualHours    *float64              `json:"actual_hours"`
}

// TaskDetail is the detail read: the entity plus figures derived from
// its current subtasks. The derived fields are recomputed on every read
// and never stored.
type TaskDetail struct {
	models.Task
	SubtaskStats  SubtaskStatsResult `json:"subtask_stats"`
	DerivedStatus models.TaskStatus  `json:"derived_status"`
}

// requireProjectAccess gates project-scoped tasks; tasks without a
// project are open to any authenticated user.
func (s *TaskService) requireProjectAccess(projectID *uint, userID uint) error {
	if projectID == nil || userID == 0 {
		return nil
	}
	role, err := s.db.GetUserProjectRole(*projectID, userID)
	if err != nil {
		return fmt.Errorf("resolve project role: %w", err)
	}
	if role == "" {
		return ErrAccessDenied
	}
	return nil
}

func (s *TaskService) CreateTask(req CreateTaskRequest, createdBy uint) (*TaskDetail, error) {
	if err := validateTaskCreate(req); err != nil {
		return nil, err
	}
	if err := s.requireProjectAccess(req.ProjectID, createdBy); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		CreatedBy:      createdBy,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	if err := s.db.CreateTask(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	if len(req.Tags) > 0 {
		if err := s.db.AssignTagsToTask(task.ID, req.Tags); err != nil {
			return nil, fmt.Errorf("assign tags: %w", err)
		}
	}

	logger.Info().
		Str("op", "task.create").
		Uint("task_id", task.ID).
		Uint("user_id", createdBy).
		Msg("task created")

	return s.GetTask(task.ID, 0)
}

// GetTask returns the task detail or nil when the id does not resolve.
func (s *TaskService) GetTask(id, userID uint) (*TaskDetail, error) {
	task, err := s.db.GetTask(id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return nil, err
	}

	return &TaskDetail{
		Task:          *task,
		SubtaskStats:  SubtaskStats(task.Subtasks),
		DerivedStatus: DerivedTaskStatus(task.Subtasks),
	}, nil
}

// ListTasks returns tasks the user may see. A project filter is gated
// on membership; without one the query itself is scoped to project-less
// tasks plus tasks of projects the user owns or belongs to.
func (s *TaskService) ListTasks(filter database.TaskFilter, userID uint) ([]models.Task, error) {
	if filter.ProjectID != nil {
		if err := s.requireProjectAccess(filter.ProjectID, userID); err != nil {
			return nil, err
		}
	} else {
		filter.VisibleTo = userID
	}
	tasks, err := s.db.ListTasks(filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) UpdateTask(id uint, req UpdateTaskRequest, updatedBy uint) (*TaskDetail, error) {
	if err := validateTaskUpdate(req); err != nil {
		return nil, err
	}

	existing, err := s.db.GetTask(id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(existing.ProjectID, updatedBy); err != nil {
		return nil, err
	}

	updates := taskUpdatesMap(req)
	if req.Status != nil && *req.Status != existing.Status {
		if *req.Status == models.TaskStatusDone {
			updates["completed_at"] = time.Now()
		} else if existing.Status == models.TaskStatusDone {
			updates["completed_at"] = nil
		}
	}

	task, err := s.db.UpdateTask(id, updates)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if task == nil {
		return nil, nil
	}

	var actorID *uint
	if updatedBy > 0 {
		actorID = &updatedBy
	}
	if req.Status != nil && *req.Status != existing.Status {
		_ = s.db.LogTaskStatusChanged(id, actorID, string(existing.Status), string(*req.Status))
	}
	if req.AssigneeID != nil && (existing.AssigneeID == nil || *existing.AssigneeID != *req.AssigneeID) {
		old := ""
		if existing.AssigneeID != nil {
			old = fmt.Sprintf("%d", *existing.AssigneeID)
		}
		_ = s.db.LogTaskAssigned(id, actorID, old, fmt.Sprintf("%d", *req.AssigneeID))
	}

	if req.Tags != nil {
		if err := s.db.AssignTagsToTask(id, req.Tags); err != nil {
			return nil, fmt.Errorf("assign tags: %w", err)
		}
	}

	logger.Info().
		Str("op", "task.update").
		Uint("task_id", id).
		Uint("user_id", updatedBy).
		Msg("task updated")

	return s.GetTask(id, 0)
}

// DeleteTask hard-deletes the task and cascades to its subtasks,
// comments, attachments, and tag links. Non-empty subtask lists do not
// block deletion; only project deletion blocks on children.
func (s *TaskService) DeleteTask(id, userID uint) (bool, error) {
	existing, err := s.db.GetTask(id)
	if err != nil {
		return false, fmt.Errorf("get task: %w", err)
	}
	if existing == nil {
		return false, nil
	}
	if err := s.requireProjectAccess(existing.ProjectID, userID); err != nil {
		return false, err
	}

	if err := s.db.DeleteTask(id); err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	logger.Info().
		Str("op", "task.delete").
		Uint("task_id", id).
		Uint("user_id", userID).
		Msg("task deleted")

	return true, nil
}

func (s *TaskService) CreateSubtask(taskID uint, req SubtaskRequest, userID uint) (*models.Subtask, error) {
	if req.Title == "" {
		return nil, invalid("title", "is required")
	}
	if utf8.RuneCountInString(req.Title) > maxSubtaskTitleLen {
		return nil, invalid("title", fmt.Sprintf("must be at most %d characters", maxSubtaskTitleLen))
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, invalid("status", "unknown subtask status")
	}
	if err := validateHours(req.EstimatedHours, req.ActualHours); err != nil {
		return nil, err
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return nil, err
	}

	subtask := &models.Subtask{
		TaskID:         taskID,
		Title:          req.Title,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
	if subtask.Priority == "" {
		subtask.Priority = models.TaskPriorityMedium
	}
	if err := s.db.CreateSubtask(subtask); err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}

	logger.Info().
		Str("op", "subtask.create").
		Uint("subtask_id", subtask.ID).
		Uint("task_id", taskID).
		Uint("user_id", userID).
		Msg("subtask created")

	return subtask, nil
}

func (s *TaskService) UpdateSubtask(taskID, subtaskID uint, req UpdateSubtaskRequest, userID uint) (*models.Subtask, error) {
	if req.Title != nil {
		if *req.Title == "" {
			return nil, invalid("title", "must not be empty")
		}
		if utf8.RuneCountInString(*req.Title) > maxSubtaskTitleLen {
			return nil, invalid("title", fmt.Sprintf("must be at most %d characters", maxSubtaskTitleLen))
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalid("status", "unknown subtask status")
	}
	if err := validateHours(req.EstimatedHours, req.ActualHours); err != nil {
		return nil, err
	}

	existing, err := s.db.GetSubtask(subtaskID)
	if err != nil {
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	if existing == nil || existing.TaskID != taskID {
		return nil, nil
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		updates["estimated_hours"] = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		updates["actual_hours"] = *req.ActualHours
	}

	subtask, err := s.db.UpdateSubtask(subtaskID, updates)
	if err != nil {
		return nil, fmt.Errorf("update subtask: %w", err)
	}
	return subtask, nil
}

func (s *TaskService) DeleteSubtask(taskID, subtaskID, userID uint) (bool, error) {
	existing, err := s.db.GetSubtask(subtaskID)
	if err != nil {
		return false, fmt.Errorf("get subtask: %w", err)
	}
	if existing == nil || existing.TaskID != taskID {
		return false, nil
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return false, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return false, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return false, err
	}

	if err := s.db.DeleteSubtask(subtaskID); err != nil {
		return false, fmt.Errorf("delete subtask: %w", err)
	}
	return true, nil
}

func (s *TaskService) AddComment(taskID uint, content string, authorID uint) (*models.Comment, error) {
	if content == "" {
		return nil, invalid("content", "is required")
	}

	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, authorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:   taskID,
		Content:  content,
		AuthorID: authorID,
	}
	if err := s.db.AddComment(comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return comment, nil
}

// AddAttachment records an uploaded file against the task. The file
// itself is already on disk; this persists the metadata row.
func (s *TaskService) AddAttachment(taskID uint, attachment *models.Attachment, userID uint) error {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return ErrTaskNotFound
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return err
	}

	attachment.TaskID = taskID
	if err := s.db.AddAttachment(attachment); err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	return nil
}

// GetAttachment resolves the attachment for download. The requester
// must have access to the owning task's project, same as for upload.
func (s *TaskService) GetAttachment(id, userID uint) (*models.Attachment, error) {
	attachment, err := s.db.GetAttachment(id)
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	if attachment == nil {
		return nil, nil
	}

	task, err := s.db.GetTask(attachment.TaskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, nil
	}
	if err := s.requireProjectAccess(task.ProjectID, userID); err != nil {
		return nil, err
	}

	return attachment, nil
}

func validateTaskCreate(req CreateTaskRequest) error {
	if req.Title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(req.Title) > maxTaskTitleLen {
		return invalid("title", fmt.Sprintf("must be at most %d characters", maxTaskTitleLen))
	}
	if utf8.RuneCountInString(req.Description) > maxTaskDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxTaskDescriptionLen))
	}
	if req.Status != "" && !req.Status.Valid() {
		return invalid("status", "unknown task status")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return invalid("priority", "unknown task priority")
	}
	return validateHours(req.EstimatedHours, req.ActualHours)
}

func validateTaskUpdate(req UpdateTaskRequest) error {
	if req.Title != nil {
		if *req.Title == "" {
			return invalid("title", "must not be empty")
		}
		if utf8.RuneCountInString(*req.Title) > maxTaskTitleLen {
			return invalid("title", fmt.Sprintf("must be at most %d characters", maxTaskTitleLen))
		}
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > maxTaskDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxTaskDescriptionLen))
	}
	if req.Status != nil && !req.Status.Valid() {
		return invalid("status", "unknown task status")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return invalid("priority", "unknown task priority")
	}
	return validateHours(req.EstimatedHours, req.ActualHours)
}

func validateHours(estimated, actual *float64) error {
	if estimated != nil && *estimated < 0 {
		return invalid("estimated_hours", "must not be negative")
	}
	if actual != nil && *actual < 0 {
		return invalid("actual_hours", "must not be negative")
	}
	return nil
}

func taskUpdatesMap(req UpdateTaskRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		updates["estimated_hours"] = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		updates["actual_hours"] = *req.ActualHours
	}
	return updates
}
