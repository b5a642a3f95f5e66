package database

import (
	"errors"
	"fmt"

	"github.com/taskboard-hq/taskboard/internal/models"
	"gorm.io/gorm"
)

// TaskFilter narrows ListTasks. VisibleTo scopes the result to tasks
// without a project plus tasks under projects the user owns or is a
// member of; zero means no scoping (system callers).
type TaskFilter struct {
	ProjectID       *uint
	Status          *models.TaskStatus
	AssigneeID      *uint
	IncludeArchived bool
	VisibleTo       uint
}

func (db *Database) CreateTask(task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if err := db.Create(task).Error; err != nil {
		return err
	}

	var userID *uint
	if task.CreatedBy > 0 {
		userID = &task.CreatedBy
	}
	_ = db.LogTaskCreated(task.ID, userID)

	return nil
}

// GetTask loads the task with its full detail set, or nil when the id
// does not resolve.
func (db *Database) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Project").
		Preload("Subtasks").
		Preload("Comments.Author").
		Preload("Attachments").
		Preload("Tags").
		Preload("Activities").
		Preload("AssigneeUser").
		First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (db *Database) ListTasks(filter TaskFilter) ([]models.Task, error) {
	query := db.DB.Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	} else if filter.VisibleTo != 0 {
		query = query.Where(
			"project_id IS NULL"+
				" OR project_id IN (SELECT id FROM projects WHERE owner_id = ?)"+
				" OR project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			filter.VisibleTo, filter.VisibleTo,
		)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else if !filter.IncludeArchived {
		query = query.Where("status != ?", models.TaskStatusArchived)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}

	var tasks []models.Task
	err := query.Preload("Subtasks").Preload("Tags").Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// GetProjectTasks returns every task under the project with subtasks
// preloaded; archived tasks included so the caller decides.
func (db *Database) GetProjectTasks(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("project_id = ?", projectID).Preload("Subtasks").Find(&tasks).Error
	return tasks, err
}

func (db *Database) UpdateTask(id uint, updates map[string]interface{}) (*models.Task, error) {
	var task models.Task
	err := db.First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}
	return db.GetTask(id)
}

// DeleteTask removes the task and everything under it: subtasks,
// comments, attachments, activity rows, and tag links.
func (db *Database) DeleteTask(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_tags WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		for _, child := range []interface{}{&models.Subtask{}, &models.Comment{}, &models.Attachment{}, &models.Activity{}} {
			if err := tx.Where("task_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// Subtask CRUD

func (db *Database) CreateSubtask(subtask *models.Subtask) error {
	if subtask.Status == "" {
		subtask.Status = models.SubtaskStatusTodo
	}
	return db.Create(subtask).Error
}

func (db *Database) GetSubtask(id uint) (*models.Subtask, error) {
	var subtask models.Subtask
	err := db.First(&subtask, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (db *Database) ListSubtasks(taskID uint) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&subtasks).Error
	return subtasks, err
}

func (db *Database) UpdateSubtask(id uint, updates map[string]interface{}) (*models.Subtask, error) {
	var subtask models.Subtask
	err := db.First(&subtask, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&subtask).Updates(updates).Error; err != nil {
		return nil, err
	}
	return db.GetSubtask(id)
}

func (db *Database) DeleteSubtask(id uint) error {
	res := db.Delete(&models.Subtask{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (db *Database) AddComment(comment *models.Comment) error {
	return db.Create(comment).Error
}

func (db *Database) AddAttachment(attachment *models.Attachment) error {
	return db.Create(attachment).Error
}

func (db *Database) GetAttachment(id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	err := db.First(&attachment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Tag management

func (db *Database) GetOrCreateTag(name, color string) (*models.Tag, error) {
	var tag models.Tag
	err := db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = models.Tag{Name: name, Color: color}
	if err := db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// AssignTagsToTask replaces the task's tag set with the named tags,
// creating missing ones.
func (db *Database) AssignTagsToTask(taskID uint, tagNames []string) error {
	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		return err
	}

	if err := db.Model(&task).Association("Tags").Clear(); err != nil {
		return err
	}

	for _, name := range tagNames {
		if name == "" {
			continue
		}
		tag, err := db.GetOrCreateTag(name, "")
		if err != nil {
			return err
		}
		if err := db.Model(&task).Association("Tags").Append(tag); err != nil {
			return err
		}
	}

	return nil
}

// Activity logging functions
func (db *Database) LogActivity(taskID uint, userID *uint, action, fieldName, oldValue, newValue, description string) error {
	activity := &models.Activity{
		TaskID:      taskID,
		UserID:      userID,
		Action:      action,
		FieldName:   fieldName,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
	}
	return db.Create(activity).Error
}

func (db *Database) LogTaskCreated(taskID uint, userID *uint) error {
	return db.LogActivity(taskID, userID, "created", "", "", "", "Task created")
}

func (db *Database) LogTaskStatusChanged(taskID uint, userID *uint, oldStatus, newStatus string) error {
	description := fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	return db.LogActivity(taskID, userID, "status_changed", "status", oldStatus, newStatus, description)
}

func (db *Database) LogTaskAssigned(taskID uint, userID *uint, oldAssignee, newAssignee string) error {
	description := fmt.Sprintf("Task assigned to %s", newAssignee)
	if oldAssignee != "" {
		description = fmt.Sprintf("Task reassigned from %s to %s", oldAssignee, newAssignee)
	}
	return db.LogActivity(taskID, userID, "assigned", "assignee", oldAssignee, newAssignee, description)
}
