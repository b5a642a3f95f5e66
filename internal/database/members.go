package database

import (
	"errors"
	"time"

	"github.com/taskboard-hq/taskboard/internal/models"
	"gorm.io/gorm"
)

// GetUserProjectRole returns the user's role on the project, or "" when
// the user has no membership. Provider failures are returned, not
// swallowed; callers decide how closed to fail.
func (db *Database) GetUserProjectRole(projectID, userID uint) (models.ProjectRole, error) {
	var member models.ProjectMember
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (db *Database) GetProjectMember(projectID, userID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Preload("User").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (db *Database) ListProjectMembers(projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := db.Where("project_id = ?", projectID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (db *Database) AddProjectMember(member *models.ProjectMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return db.Create(member).Error
}

func (db *Database) UpdateProjectMemberRole(projectID, userID uint, role models.ProjectRole) error {
	res := db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (db *Database) RemoveProjectMember(projectID, userID uint) error {
	res := db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// User management functions
func (db *Database) CreateUser(user *models.User) error {
	return db.DB.Create(user).Error
}

func (db *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := db.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := db.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Database) UpdateUser(user *models.User) error {
	return db.DB.Save(user).Error
}
