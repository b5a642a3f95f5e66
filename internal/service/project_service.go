package service

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/internal/models"
	"github.com/taskboard-hq/taskboard/pkg/logger"
	"gorm.io/gorm"
)

const (
	maxProjectNameLen        = 100
	maxProjectDescriptionLen = 500
)

// ProjectService gates every state-changing operation on projects and
// their members: it resolves the requester's role, applies the policy
// table, validates the payload, and only then touches the database.
type ProjectService struct {
	db *database.Database
}

func NewProjectService(db *database.Database) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
	Archived  *bool  `form:"archived"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

type ProjectListResponse struct {
	Items []models.Project `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
	Pages int              `json:"pages"`
}

type CreateProjectRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Status      models.ProjectStatus   `json:"status"`
	Priority    models.ProjectPriority `json:"priority"`
	Color       string                 `json:"color"`
	Icon        string                 `json:"icon"`
	StartDate   *time.Time             `json:"start_date"`
	EndDate     *time.Time             `json:"end_date"`
	Deadline    *time.Time             `json:"deadline"`
	Budget      *float64               `json:"budget"`
	Tags        []string               `json:"tags"`
}

type UpdateProjectRequest struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Status      *models.ProjectStatus   `json:"status"`
	Priority    *models.ProjectPriority `json:"priority"`
	Color       *string                 `json:"color"`
	Icon        *string                 `json:"icon"`
	StartDate   *time.Time              `json:"start_date"`
	EndDate     *time.Time              `json:"end_date"`
	Deadline    *time.Time              `json:"deadline"`
	Budget      *float64                `json:"budget"`
	Tags        []string                `json:"tags"`
	IsArchived  *bool                   `json:"is_archived"`
}

type BulkUpdateProjectsRequest struct {
	ProjectIDs []uint               `json:"project_ids"`
	Updates    UpdateProjectRequest `json:"updates"`
}

type MemberRequest struct {
	UserID uint               `json:"user_id"`
	Role   models.ProjectRole `json:"role"`
}

type ProjectWithStats struct {
	models.Project
	Stats ProjectStatsResult `json:"stats"`
}

// Role policy. Fixed, not configurable.

func canManageProject(r models.ProjectRole) bool {
	return r == models.ProjectRoleOwner || r == models.ProjectRoleAdmin
}

func canDeleteProject(r models.ProjectRole) bool {
	return r == models.ProjectRoleOwner
}

func canManageMembers(r models.ProjectRole) bool {
	return r == models.ProjectRoleOwner || r == models.ProjectRoleAdmin
}

// requireRole resolves the requester's role and checks it against the
// policy predicate. A missing role and an insufficient role are the same
// failure; provider errors propagate so callers can tell them apart.
func (s *ProjectService) requireRole(projectID, userID uint, allowed func(models.ProjectRole) bool) error {
	role, err := s.db.GetUserProjectRole(projectID, userID)
	if err != nil {
		return fmt.Errorf("resolve project role: %w", err)
	}
	if role == "" || !allowed(role) {
		return ErrAccessDenied
	}
	return nil
}

// ListProjects returns the page of projects visible to the user. The
// visibility predicate is part of the query, not decoration on top of
// it: userID scopes results to owned or joined projects, zero lists all
// (system callers only).
func (s *ProjectService) ListProjects(req ProjectListRequest, userID uint) (*ProjectListResponse, error) {
	filter := database.ProjectFilter{
		Search:    req.Search,
		Archived:  req.Archived,
		VisibleTo: userID,
	}
	if req.Status != "" {
		status := models.ProjectStatus(req.Status)
		if !status.Valid() {
			return nil, invalid("status", "unknown project status")
		}
		filter.Status = &status
	}
	if req.Priority != "" {
		priority := models.ProjectPriority(req.Priority)
		if !priority.Valid() {
			return nil, invalid("priority", "unknown project priority")
		}
		filter.Priority = &priority
	}

	page := database.Pagination{Page: req.Page, Limit: req.Limit}
	page.Normalize()
	projects, total, err := s.db.ListProjects(filter, page, req.SortBy, req.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return &ProjectListResponse{
		Items: projects,
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}, nil
}

// GetProject returns the project or nil when the id does not resolve.
// When userID is non-zero the caller must hold some role on it.
func (s *ProjectService) GetProject(id, userID uint) (*models.Project, error) {
	project, err := s.db.GetProject(id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, nil
	}

	if userID != 0 {
		if err := s.requireRole(id, userID, func(models.ProjectRole) bool { return true }); err != nil {
			return nil, err
		}
	}

	return project, nil
}

// GetProjectStats computes derived figures from the project's current
// tasks. Nothing is cached; every call recomputes.
func (s *ProjectService) GetProjectStats(id, userID uint) (*ProjectStatsResult, error) {
	project, err := s.GetProject(id, userID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	tasks, err := s.db.GetProjectTasks(id)
	if err != nil {
		return nil, fmt.Errorf("load project tasks: %w", err)
	}

	stats := ProjectStats(tasks, time.Now())
	return &stats, nil
}

func (s *ProjectService) GetProjectWithStats(id, userID uint) (*ProjectWithStats, error) {
	project, err := s.GetProject(id, userID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	tasks, err := s.db.GetProjectTasks(id)
	if err != nil {
		return nil, fmt.Errorf("load project tasks: %w", err)
	}

	return &ProjectWithStats{
		Project: *project,
		Stats:   ProjectStats(tasks, time.Now()),
	}, nil
}

// CreateProject validates the payload, persists it, and enrolls the
// creator as OWNER. Validation failures never reach the database.
func (s *ProjectService) CreateProject(req CreateProjectRequest, createdBy uint) (*models.Project, error) {
	if err := validateProjectCreate(req); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Color:       req.Color,
		Icon:        req.Icon,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Deadline:    req.Deadline,
		Budget:      req.Budget,
		Tags:        req.Tags,
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusPlanning
	}
	if project.Priority == "" {
		project.Priority = models.ProjectPriorityMedium
	}

	if err := s.db.CreateProject(project, createdBy); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	logger.Info().
		Str("op", "project.create").
		Uint("project_id", project.ID).
		Uint("user_id", createdBy).
		Msg("project created")

	return s.db.GetProject(project.ID)
}

// UpdateProject applies the payload for an OWNER or ADMIN requester.
// Returns nil when the id does not resolve.
func (s *ProjectService) UpdateProject(id uint, req UpdateProjectRequest, updatedBy uint) (*models.Project, error) {
	if err := s.requireRole(id, updatedBy, canManageProject); err != nil {
		return nil, err
	}
	if err := validateProjectUpdate(req); err != nil {
		return nil, err
	}

	project, err := s.db.UpdateProject(id, projectUpdatesMap(req))
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if project == nil {
		return nil, nil
	}

	logger.Info().
		Str("op", "project.update").
		Uint("project_id", id).
		Uint("user_id", updatedBy).
		Msg("project updated")

	return project, nil
}

// DeleteProject is owner-only and refuses while tasks still reference
// the project.
func (s *ProjectService) DeleteProject(id, userID uint) error {
	if err := s.requireRole(id, userID, canDeleteProject); err != nil {
		return err
	}

	count, err := s.db.CountProjectTasks(id)
	if err != nil {
		return fmt.Errorf("count project tasks: %w", err)
	}
	if count > 0 {
		return ErrProjectHasTasks
	}

	if err := s.db.DeleteProject(id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	logger.Info().
		Str("op", "project.delete").
		Uint("project_id", id).
		Uint("user_id", userID).
		Msg("project deleted")

	return nil
}

// BulkUpdateProjects applies one update payload to many projects. All
// permission checks run before any write, and the writes share a single
// transaction: an unauthorized id or a mid-batch failure leaves nothing
// applied.
func (s *ProjectService) BulkUpdateProjects(req BulkUpdateProjectsRequest, userID uint) error {
	if len(req.ProjectIDs) == 0 {
		return invalid("project_ids", "must not be empty")
	}
	if err := validateProjectUpdate(req.Updates); err != nil {
		return err
	}

	for _, id := range req.ProjectIDs {
		if err := s.requireRole(id, userID, canManageProject); err != nil {
			return err
		}
	}

	updates := projectUpdatesMap(req.Updates)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range req.ProjectIDs {
			if err := database.UpdateProjectTx(tx, id, updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bulk update projects: %w", err)
	}

	logger.Info().
		Str("op", "project.bulk_update").
		Ints("project_ids", uintsToInts(req.ProjectIDs)).
		Uint("user_id", userID).
		Msg("projects bulk updated")

	return nil
}

// AddProjectMember enrolls a user for an OWNER or ADMIN requester. The
// owner role can never be granted this way.
func (s *ProjectService) AddProjectMember(projectID uint, req MemberRequest, requesterID uint) error {
	if err := s.requireRole(projectID, requesterID, canManageMembers); err != nil {
		return err
	}

	role := req.Role
	if role == "" {
		role = models.ProjectRoleMember
	}
	if !role.Valid() {
		return invalid("role", "unknown project role")
	}
	if role == models.ProjectRoleOwner {
		return ErrImmutableOwnerRole
	}

	existing, err := s.db.GetUserProjectRole(projectID, req.UserID)
	if err != nil {
		return fmt.Errorf("resolve member role: %w", err)
	}
	if existing != "" {
		return ErrDuplicateMember
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      role,
	}
	if err := s.db.AddProjectMember(member); err != nil {
		return fmt.Errorf("add project member: %w", err)
	}

	logger.Info().
		Str("op", "project.member.add").
		Uint("project_id", projectID).
		Uint("member_id", req.UserID).
		Uint("user_id", requesterID).
		Msg("project member added")

	return nil
}

// UpdateProjectMember changes a member's role. The owner's role is
// immutable, and no member can be promoted to owner.
func (s *ProjectService) UpdateProjectMember(projectID, targetUserID uint, req MemberRequest, requesterID uint) error {
	if err := s.requireRole(projectID, requesterID, canManageMembers); err != nil {
		return err
	}
	if !req.Role.Valid() {
		return invalid("role", "unknown project role")
	}
	if req.Role == models.ProjectRoleOwner {
		return ErrImmutableOwnerRole
	}

	current, err := s.db.GetUserProjectRole(projectID, targetUserID)
	if err != nil {
		return fmt.Errorf("resolve member role: %w", err)
	}
	if current == "" {
		return ErrMemberNotFound
	}
	if current == models.ProjectRoleOwner {
		return ErrImmutableOwnerRole
	}

	if err := s.db.UpdateProjectMemberRole(projectID, targetUserID, req.Role); err != nil {
		return fmt.Errorf("update project member: %w", err)
	}

	logger.Info().
		Str("op", "project.member.update").
		Uint("project_id", projectID).
		Uint("member_id", targetUserID).
		Uint("user_id", requesterID).
		Msg("project member updated")

	return nil
}

// RemoveProjectMember removes a member. The owner cannot be removed.
func (s *ProjectService) RemoveProjectMember(projectID, targetUserID, requesterID uint) error {
	if err := s.requireRole(projectID, requesterID, canManageMembers); err != nil {
		return err
	}

	current, err := s.db.GetUserProjectRole(projectID, targetUserID)
	if err != nil {
		return fmt.Errorf("resolve member role: %w", err)
	}
	if current == "" {
		return ErrMemberNotFound
	}
	if current == models.ProjectRoleOwner {
		return ErrCannotRemoveOwner
	}

	if err := s.db.RemoveProjectMember(projectID, targetUserID); err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}

	logger.Info().
		Str("op", "project.member.remove").
		Uint("project_id", projectID).
		Uint("member_id", targetUserID).
		Uint("user_id", requesterID).
		Msg("project member removed")

	return nil
}

func (s *ProjectService) ListProjectMembers(projectID, requesterID uint) ([]models.ProjectMember, error) {
	if err := s.requireRole(projectID, requesterID, func(models.ProjectRole) bool { return true }); err != nil {
		return nil, err
	}
	return s.db.ListProjectMembers(projectID)
}

// HasProjectAccess reports whether the user holds any role on the
// project. Fail-closed: provider errors are logged and read as no
// access, which suits the middleware path where a transient outage must
// not open a door.
func (s *ProjectService) HasProjectAccess(projectID, userID uint) bool {
	role, err := s.db.GetUserProjectRole(projectID, userID)
	if err != nil {
		logger.Error().Err(err).
			Uint("project_id", projectID).
			Uint("user_id", userID).
			Msg("access check failed, denying")
		return false
	}
	return role != ""
}

// GetUserProjectRole exposes the raw role lookup; "" means no role, and
// provider failures surface so callers can tell outage from denial.
func (s *ProjectService) GetUserProjectRole(projectID, userID uint) (models.ProjectRole, error) {
	return s.db.GetUserProjectRole(projectID, userID)
}

// Validation. Rules run before any write is attempted.

func validateProjectCreate(req CreateProjectRequest) error {
	if req.Name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(req.Name) > maxProjectNameLen {
		return invalid("name", fmt.Sprintf("must be at most %d characters", maxProjectNameLen))
	}
	if utf8.RuneCountInString(req.Description) > maxProjectDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxProjectDescriptionLen))
	}
	if req.Status != "" && !req.Status.Valid() {
		return invalid("status", "unknown project status")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return invalid("priority", "unknown project priority")
	}
	return validateProjectDatesAndBudget(req.StartDate, req.EndDate, req.Deadline, req.Budget)
}

func validateProjectUpdate(req UpdateProjectRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return invalid("name", "must not be empty")
		}
		if utf8.RuneCountInString(*req.Name) > maxProjectNameLen {
			return invalid("name", fmt.Sprintf("must be at most %d characters", maxProjectNameLen))
		}
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > maxProjectDescriptionLen {
		return invalid("description", fmt.Sprintf("must be at most %d characters", maxProjectDescriptionLen))
	}
	if req.Status != nil && !req.Status.Valid() {
		return invalid("status", "unknown project status")
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return invalid("priority", "unknown project priority")
	}
	return validateProjectDatesAndBudget(req.StartDate, req.EndDate, req.Deadline, req.Budget)
}

func validateProjectDatesAndBudget(start, end, deadline *time.Time, budget *float64) error {
	if start != nil && end != nil && start.After(*end) {
		return invalid("start_date", "must not be after end_date")
	}
	if end != nil && deadline != nil && end.After(*deadline) {
		return invalid("end_date", "must not be after deadline")
	}
	if budget != nil && *budget < 0 {
		return invalid("budget", "must not be negative")
	}
	return nil
}

func projectUpdatesMap(req UpdateProjectRequest) map[string]interface{} {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
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
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.Budget != nil {
		updates["budget"] = *req.Budget
	}
	if req.Tags != nil {
		// Map updates bypass the json serializer on the column.
		data, _ := json.Marshal(req.Tags)
		updates["tags"] = string(data)
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}
	return updates
}

func uintsToInts(ids []uint) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
