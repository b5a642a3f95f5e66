package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskboard-hq/taskboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
}

func NewDatabase(dataDir string) (*Database, error) {
	dbPath := filepath.Join(dataDir, "db", "taskboard.db")

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Subtask{},
		&models.Tag{},
		&models.Comment{},
		&models.Attachment{},
		&models.Activity{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// ProjectFilter narrows ListProjects. VisibleTo scopes the result to
// projects the user owns or is a member of; zero means no scoping
// (system callers).
type ProjectFilter struct {
	Status    *models.ProjectStatus
	Priority  *models.ProjectPriority
	Search    string
	Archived  *bool
	VisibleTo uint
}

type Pagination struct {
	Page  int
	Limit int
}

// Normalize clamps the page and limit to served bounds. Callers that
// echo pagination metadata normalize before querying so the reported
// limit matches the page actually returned.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

var sortableProjectColumns = map[string]string{
	"name":       "name",
	"status":     "status",
	"priority":   "priority",
	"deadline":   "deadline",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListProjects returns a page of projects with members preloaded, plus
// the unpaginated total for the filter.
func (db *Database) ListProjects(filter ProjectFilter, page Pagination, sortBy, sortOrder string) ([]models.Project, int64, error) {
	page.Normalize()

	query := db.Model(&models.Project{})

	if filter.VisibleTo != 0 {
		query = query.Where(
			"projects.owner_id = ? OR projects.id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			filter.VisibleTo, filter.VisibleTo,
		)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("projects.priority = ?", *filter.Priority)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("projects.name LIKE ? OR projects.description LIKE ?", like, like)
	}
	if filter.Archived != nil {
		query = query.Where("projects.is_archived = ?", *filter.Archived)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortableProjectColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}

	var projects []models.Project
	offset := (page.Page - 1) * page.Limit
	err := query.
		Order(fmt.Sprintf("projects.%s %s", column, order)).
		Offset(offset).
		Limit(page.Limit).
		Preload("Members.User").
		Preload("Owner").
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// GetProject returns the project with members and tasks preloaded, or
// nil when the id does not resolve.
func (db *Database) GetProject(id uint) (*models.Project, error) {
	var project models.Project
	err := db.
		Preload("Members.User").
		Preload("Owner").
		Preload("Tasks.Subtasks").
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject persists the project and enrolls the creator as its
// OWNER member in the same transaction.
func (db *Database) CreateProject(project *models.Project, createdBy uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		project.OwnerID = createdBy
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    createdBy,
			Role:      models.ProjectRoleOwner,
			JoinedAt:  time.Now(),
		}
		return tx.Create(&member).Error
	})
}

// UpdateProject applies the field map and returns the refreshed entity,
// or nil when the id does not resolve.
func (db *Database) UpdateProject(id uint, updates map[string]interface{}) (*models.Project, error) {
	var project models.Project
	err := db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := db.Model(&project).Updates(updates).Error; err != nil {
		return nil, err
	}
	return db.GetProject(id)
}

// UpdateProjectTx is UpdateProject bound to an existing transaction,
// used by the bulk path.
func UpdateProjectTx(tx *gorm.DB, id uint, updates map[string]interface{}) error {
	res := tx.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountProjectTasks counts undeleted tasks still referencing the project.
func (db *Database) CountProjectTasks(projectID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// DeleteProject removes the project and every row that hangs off it.
func (db *Database) DeleteProject(id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			DELETE FROM task_tags
			WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)
		`, id).Error; err != nil {
			return err
		}
		for _, child := range []interface{}{&models.Comment{}, &models.Attachment{}, &models.Activity{}, &models.Subtask{}} {
			if err := tx.Where("task_id IN (SELECT id FROM tasks WHERE project_id = ?)", id).
				Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}
