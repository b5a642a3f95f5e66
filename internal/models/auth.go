package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Username  string    `json:"username" gorm:"unique;not null"`
	Password  string    `json:"-" gorm:"not null"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectRole is a member's permission level on a single project. The
// owner role is assigned when the project is created and never through
// member management.
type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "OWNER"
	ProjectRoleAdmin  ProjectRole = "ADMIN"
	ProjectRoleMember ProjectRole = "MEMBER"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleOwner, ProjectRoleAdmin, ProjectRoleMember:
		return true
	}
	return false
}

type ProjectMember struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	ProjectID uint        `json:"project_id" gorm:"not null;uniqueIndex:uq_project_members_project_user"`
	UserID    uint        `json:"user_id" gorm:"not null;uniqueIndex:uq_project_members_project_user"`
	Role      ProjectRole `json:"role" gorm:"not null;default:'MEMBER'"`
	JoinedAt  time.Time   `json:"joined_at"`
	User      *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
