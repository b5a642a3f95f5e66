package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

type ProjectPriority string

const (
	ProjectPriorityLow      ProjectPriority = "low"
	ProjectPriorityMedium   ProjectPriority = "medium"
	ProjectPriorityHigh     ProjectPriority = "high"
	ProjectPriorityCritical ProjectPriority = "critical"
)

func (p ProjectPriority) Valid() bool {
	switch p {
	case ProjectPriorityLow, ProjectPriorityMedium, ProjectPriorityHigh, ProjectPriorityCritical:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusArchived   TaskStatus = "archived"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusArchived:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityUrgent   TaskPriority = "urgent"
	TaskPriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent, TaskPriorityCritical:
		return true
	}
	return false
}

// SubtaskStatus is the canonical subtask representation. "Completed" is
// always derived from it (IsDone), never stored alongside it.
type SubtaskStatus string

const (
	SubtaskStatusTodo       SubtaskStatus = "todo"
	SubtaskStatusInProgress SubtaskStatus = "in_progress"
	SubtaskStatusDone       SubtaskStatus = "done"
)

func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskStatusTodo, SubtaskStatusInProgress, SubtaskStatusDone:
		return true
	}
	return false
}

type Project struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Status      ProjectStatus   `json:"status" gorm:"default:'planning'"`
	Priority    ProjectPriority `json:"priority" gorm:"default:'medium'"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon"`
	OwnerID     uint            `json:"owner_id" gorm:"index"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Deadline    *time.Time      `json:"deadline"`
	Budget      *float64        `json:"budget"`
	Tags        []string        `json:"tags" gorm:"serializer:json"`
	IsArchived  bool            `json:"is_archived" gorm:"default:false"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Tasks       []Task          `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	Owner       *User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members     []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
}

type Task struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	ProjectID      *uint        `json:"project_id,omitempty" gorm:"index"`
	Title          string       `json:"title" gorm:"not null"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status" gorm:"default:'todo'"`
	Priority       TaskPriority `json:"priority" gorm:"default:'medium'"`
	AssigneeID     *uint        `json:"assignee_id,omitempty"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	EstimatedHours *float64     `json:"estimated_hours"`
	ActualHours    *float64     `json:"actual_hours"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedBy      uint         `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Project        *Project     `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	AssigneeUser   *User        `json:"assignee_user,omitempty" gorm:"foreignKey:AssigneeID"`
	Creator        *User        `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Subtasks       []Subtask    `json:"subtasks,omitempty" gorm:"foreignKey:TaskID"`
	Comments       []Comment    `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
	Attachments    []Attachment `json:"attachments,omitempty" gorm:"foreignKey:TaskID"`
	Tags           []Tag        `json:"tags,omitempty" gorm:"many2many:task_tags;"`
	Activities     []Activity   `json:"activities,omitempty" gorm:"foreignKey:TaskID"`
}

type Subtask struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	TaskID         uint          `json:"task_id" gorm:"not null;index"`
	Title          string        `json:"title" gorm:"not null"`
	Status         SubtaskStatus `json:"status" gorm:"default:'todo'"`
	Priority       TaskPriority  `json:"priority" gorm:"default:'medium'"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	EstimatedHours *float64      `json:"estimated_hours"`
	ActualHours    *float64      `json:"actual_hours"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Task           *Task         `json:"task,omitempty" gorm:"foreignKey:TaskID"`
}

// IsDone reports the derived completion flag.
func (s *Subtask) IsDone() bool {
	return s.Status == SubtaskStatusDone
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"not null"`
	AuthorID  uint      `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

type Attachment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	Filename  string    `json:"filename" gorm:"not null"`
	Path      string    `json:"path" gorm:"not null"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"uniqueIndex;not null"`
	Color string `json:"color"`
	Tasks []Task `json:"tasks,omitempty" gorm:"many2many:task_tags;"`
}

type Activity struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TaskID      uint      `json:"task_id" gorm:"not null;index"`
	UserID      *uint     `json:"user_id"`
	Action      string    `json:"action"`
	FieldName   string    `json:"field_name"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	User        *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
