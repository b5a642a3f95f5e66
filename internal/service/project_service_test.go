package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/internal/models"
)

func setupProjectService(t *testing.T) (*ProjectService, *database.Database) {
	db, err := database.NewDatabase(t.TempDir())
	require.NoError(t, err)
	return NewProjectService(db), db
}

func createTestUser(t *testing.T, db *database.Database, email string) *models.User {
	user := &models.User{
		Email:    email,
		Username: email,
		Password: "not-a-real-hash",
		IsActive: true,
	}
	require.NoError(t, db.CreateUser(user))
	return user
}

func createTestProject(t *testing.T, svc *ProjectService, ownerID uint, name string) *models.Project {
	project, err := svc.CreateProject(CreateProjectRequest{Name: name}, ownerID)
	require.NoError(t, err)
	require.NotNil(t, project)
	return project
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestCreateProjectValidation(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	longName := strings.Repeat("x", 101)
	longDescription := strings.Repeat("y", 501)

	tests := []struct {
		name  string
		req   CreateProjectRequest
		field string
	}{
		{
			name:  "missing name",
			req:   CreateProjectRequest{},
			field: "name",
		},
		{
			name:  "name too long",
			req:   CreateProjectRequest{Name: longName},
			field: "name",
		},
		{
			name:  "description too long",
			req:   CreateProjectRequest{Name: "p", Description: longDescription},
			field: "description",
		},
		{
			name:  "start date after end date",
			req:   CreateProjectRequest{Name: "p", StartDate: &start, EndDate: &end},
			field: "start_date",
		},
		{
			name:  "end date after deadline",
			req:   CreateProjectRequest{Name: "p", EndDate: &end, Deadline: &deadline},
			field: "end_date",
		},
		{
			name:  "negative budget",
			req:   CreateProjectRequest{Name: "p", Budget: floatPtr(-100)},
			field: "budget",
		},
		{
			name:  "unknown status",
			req:   CreateProjectRequest{Name: "p", Status: "bogus"},
			field: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := svc.CreateProject(tt.req, owner.ID)
			require.Error(t, err)
			assert.Nil(t, project)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	// Validation failures must never reach the persistence provider.
	var count int64
	require.NoError(t, db.Model(&models.Project{}).Count(&count).Error)
	assert.Zero(t, count)

	t.Run("limits count characters not bytes", func(t *testing.T) {
		project, err := svc.CreateProject(CreateProjectRequest{Name: strings.Repeat("ü", 100)}, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, project)
	})
}

func TestCreateProjectRoundTrip(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	created, err := svc.CreateProject(CreateProjectRequest{
		Name:        "Launch",
		Description: "Q2 launch push",
		Status:      models.ProjectStatusActive,
		Priority:    models.ProjectPriorityHigh,
		Color:       "#2563EB",
		Icon:        "🚀",
		StartDate:   &start,
		EndDate:     &end,
		Deadline:    &deadline,
		Budget:      floatPtr(5000),
		Tags:        []string{"launch", "q2"},
	}, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, created)

	fetched, err := svc.GetProject(created.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, "Launch", fetched.Name)
	assert.Equal(t, "Q2 launch push", fetched.Description)
	assert.Equal(t, models.ProjectStatusActive, fetched.Status)
	assert.Equal(t, models.ProjectPriorityHigh, fetched.Priority)
	assert.Equal(t, "#2563EB", fetched.Color)
	assert.Equal(t, []string{"launch", "q2"}, fetched.Tags)
	require.NotNil(t, fetched.Budget)
	assert.Equal(t, 5000.0, *fetched.Budget)
	require.NotNil(t, fetched.StartDate)
	assert.WithinDuration(t, start, *fetched.StartDate, time.Second)

	// The creator is enrolled as the single OWNER member.
	require.Len(t, fetched.Members, 1)
	assert.Equal(t, owner.ID, fetched.Members[0].UserID)
	assert.Equal(t, models.ProjectRoleOwner, fetched.Members[0].Role)
}

func TestCreateProjectDefaults(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")

	project := createTestProject(t, svc, owner.ID, "Bare")
	assert.Equal(t, models.ProjectStatusPlanning, project.Status)
	assert.Equal(t, models.ProjectPriorityMedium, project.Priority)
}

func TestGetProjectAccess(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	project := createTestProject(t, svc, owner.ID, "Private")

	t.Run("missing id resolves to nil", func(t *testing.T) {
		got, err := svc.GetProject(9999, owner.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("stranger denied", func(t *testing.T) {
		got, err := svc.GetProject(project.ID, stranger.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Nil(t, got)
	})

	t.Run("system caller bypasses role check", func(t *testing.T) {
		got, err := svc.GetProject(project.ID, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
	})
}

func TestUpdateProjectPermissions(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	project := createTestProject(t, svc, owner.ID, "Permissions")
	require.NoError(t, svc.AddProjectMember(project.ID, MemberRequest{UserID: admin.ID, Role: models.ProjectRoleAdmin}, owner.ID))
	require.NoError(t, svc.AddProjectMember(project.ID, MemberRequest{UserID: member.ID, Role: models.ProjectRoleMember}, owner.ID))

	update := UpdateProjectRequest{Name: strPtr("Renamed")}

	t.Run("owner allowed", func(t *testing.T) {
		updated, err := svc.UpdateProject(project.ID, update, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
	})

	t.Run("admin allowed", func(t *testing.T) {
		updated, err := svc.UpdateProject(project.ID, UpdateProjectRequest{Name: strPtr("Renamed again")}, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed again", updated.Name)
	})

	t.Run("member denied", func(t *testing.T) {
		_, err := svc.UpdateProject(project.ID, update, member.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("stranger denied", func(t *testing.T) {
		_, err := svc.UpdateProject(project.ID, update, stranger.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown project fails closed", func(t *testing.T) {
		_, err := svc.UpdateProject(9999, update, owner.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestUpdateProjectValidation(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, svc, owner.ID, "Valid")

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty name rejected when present", func(t *testing.T) {
		_, err := svc.UpdateProject(project.ID, UpdateProjectRequest{Name: strPtr("")}, owner.ID)
		assert.True(t, IsValidationError(err))
	})

	t.Run("bad date order rejected", func(t *testing.T) {
		_, err := svc.UpdateProject(project.ID, UpdateProjectRequest{StartDate: &start, EndDate: &end}, owner.ID)
		assert.True(t, IsValidationError(err))
	})

	t.Run("stored state unchanged after failures", func(t *testing.T) {
		fetched, err := svc.GetProject(project.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Valid", fetched.Name)
		assert.Nil(t, fetched.StartDate)
	})
}

func TestDeleteProject(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestUser(t, db, "admin@example.com")

	project := createTestProject(t, svc, owner.ID, "Doomed")
	require.NoError(t, svc.AddProjectMember(project.ID, MemberRequest{UserID: admin.ID, Role: models.ProjectRoleAdmin}, owner.ID))

	t.Run("admin denied", func(t *testing.T) {
		err := svc.DeleteProject(project.ID, admin.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("blocked while tasks remain", func(t *testing.T) {
		pid := project.ID
		require.NoError(t, db.CreateTask(&models.Task{ProjectID: &pid, Title: "Blocker", CreatedBy: owner.ID}))

		err := svc.DeleteProject(project.ID, owner.ID)
		assert.ErrorIs(t, err, ErrProjectHasTasks)

		var tasks []models.Task
		require.NoError(t, db.Where("project_id = ?", pid).Find(&tasks).Error)
		require.Len(t, tasks, 1)
		require.NoError(t, db.DeleteTask(tasks[0].ID))
	})

	t.Run("owner deletes empty project", func(t *testing.T) {
		require.NoError(t, svc.DeleteProject(project.ID, owner.ID))

		got, err := svc.GetProject(project.ID, 0)
		require.NoError(t, err)
		assert.Nil(t, got)

		var memberCount int64
		require.NoError(t, db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&memberCount).Error)
		assert.Zero(t, memberCount)
	})
}

func TestBulkUpdateProjects(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	p1 := createTestProject(t, svc, owner.ID, "Bulk 1")
	p2 := createTestProject(t, svc, owner.ID, "Bulk 2")
	foreign := createTestProject(t, svc, other.ID, "Not yours")

	t.Run("applies to every authorized project", func(t *testing.T) {
		status := models.ProjectStatusOnHold
		err := svc.BulkUpdateProjects(BulkUpdateProjectsRequest{
			ProjectIDs: []uint{p1.ID, p2.ID},
			Updates:    UpdateProjectRequest{Status: &status},
		}, owner.ID)
		require.NoError(t, err)

		for _, id := range []uint{p1.ID, p2.ID} {
			got, err := svc.GetProject(id, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ProjectStatusOnHold, got.Status)
		}
	})

	t.Run("one unauthorized id fails the whole batch before any write", func(t *testing.T) {
		status := models.ProjectStatusCancelled
		err := svc.BulkUpdateProjects(BulkUpdateProjectsRequest{
			ProjectIDs: []uint{p1.ID, foreign.ID},
			Updates:    UpdateProjectRequest{Status: &status},
		}, owner.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)

		got, err := svc.GetProject(p1.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectStatusOnHold, got.Status, "no partial writes")
	})

	t.Run("empty id list rejected", func(t *testing.T) {
		err := svc.BulkUpdateProjects(BulkUpdateProjectsRequest{}, owner.ID)
		assert.True(t, IsValidationError(err))
	})
}

func TestMemberManagement(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	newcomer := createTestUser(t, db, "newcomer@example.com")

	project := createTestProject(t, svc, owner.ID, "Team")
	require.NoError(t, svc.AddProjectMember(project.ID, MemberRequest{UserID: admin.ID, Role: models.ProjectRoleAdmin}, owner.ID))
	require.NoError(t, svc.AddProjectMember(project.ID, MemberRequest{UserID: member.ID, Role: models.ProjectRoleMember}, owner.ID))

	t.Run("member cannot manage members", func(t *testing.T) {
		err := svc.AddProjectMember(project.ID, MemberRequest{UserID: newcomer.ID}, member.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("duplicate member rejected", func(t *testing.T) {
		err := svc.AddProjectMember(project.ID, MemberRequest{UserID: admin.ID, Role: models.ProjectRoleMember}, owner.ID)
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})

	t.Run("owner role cannot be granted via member management", func(t *testing.T) {
		err := svc.AddProjectMember(project.ID, MemberRequest{UserID: newcomer.ID, Role: models.ProjectRoleOwner}, owner.ID)
		assert.ErrorIs(t, err, ErrImmutableOwnerRole)

		err = svc.UpdateProjectMember(project.ID, member.ID, MemberRequest{Role: models.ProjectRoleOwner}, owner.ID)
		assert.ErrorIs(t, err, ErrImmutableOwnerRole)
	})

	t.Run("owner role is immutable even for admins", func(t *testing.T) {
		err := svc.UpdateProjectMember(project.ID, owner.ID, MemberRequest{Role: models.ProjectRoleMember}, admin.ID)
		assert.ErrorIs(t, err, ErrImmutableOwnerRole)

		role, err := svc.GetUserProjectRole(project.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectRoleOwner, role, "owner role unchanged after rejected call")
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := svc.RemoveProjectMember(project.ID, owner.ID, admin.ID)
		assert.ErrorIs(t, err, ErrCannotRemoveOwner)
	})

	t.Run("admin promotes member", func(t *testing.T) {
		err := svc.UpdateProjectMember(project.ID, member.ID, MemberRequest{Role: models.ProjectRoleAdmin}, admin.ID)
		require.NoError(t, err)

		role, err := svc.GetUserProjectRole(project.ID, member.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectRoleAdmin, role)
	})

	t.Run("unknown member reported as such", func(t *testing.T) {
		err := svc.UpdateProjectMember(project.ID, newcomer.ID, MemberRequest{Role: models.ProjectRoleMember}, owner.ID)
		assert.ErrorIs(t, err, ErrMemberNotFound)

		err = svc.RemoveProjectMember(project.ID, newcomer.ID, owner.ID)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("remove member", func(t *testing.T) {
		err := svc.RemoveProjectMember(project.ID, member.ID, owner.ID)
		require.NoError(t, err)

		role, err := svc.GetUserProjectRole(project.ID, member.ID)
		require.NoError(t, err)
		assert.Empty(t, role)
	})
}

func TestHasProjectAccess(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")

	project := createTestProject(t, svc, owner.ID, "Access")

	assert.True(t, svc.HasProjectAccess(project.ID, owner.ID))
	assert.False(t, svc.HasProjectAccess(project.ID, stranger.ID))
	assert.False(t, svc.HasProjectAccess(9999, owner.ID))
}

func TestListProjectsScoping(t *testing.T) {
	svc, db := setupProjectService(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	carol := createTestUser(t, db, "carol@example.com")

	p1 := createTestProject(t, svc, alice.ID, "Alice's")
	p2 := createTestProject(t, svc, bob.ID, "Bob's")
	require.NoError(t, svc.AddProjectMember(p2.ID, MemberRequest{UserID: alice.ID, Role: models.ProjectRoleMember}, bob.ID))

	t.Run("owned and joined projects visible", func(t *testing.T) {
		resp, err := svc.ListProjects(ProjectListRequest{}, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)

		ids := []uint{}
		for _, p := range resp.Items {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, []uint{p1.ID, p2.ID}, ids)
	})

	t.Run("only owned visible for non-member", func(t *testing.T) {
		resp, err := svc.ListProjects(ProjectListRequest{}, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
		assert.Equal(t, p2.ID, resp.Items[0].ID)
	})

	t.Run("no role means empty page", func(t *testing.T) {
		resp, err := svc.ListProjects(ProjectListRequest{}, carol.ID)
		require.NoError(t, err)
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.Items)
	})

	t.Run("pagination metadata", func(t *testing.T) {
		resp, err := svc.ListProjects(ProjectListRequest{Page: 1, Limit: 1}, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		assert.Equal(t, 1, resp.Limit)
		assert.Equal(t, 2, resp.Pages)
		assert.Len(t, resp.Items, 1)
	})

	t.Run("oversized limit clamps and metadata reflects it", func(t *testing.T) {
		resp, err := svc.ListProjects(ProjectListRequest{Limit: 1000}, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, resp.Limit, "reported limit matches the page actually served")
		assert.Equal(t, 1, resp.Pages)
	})

	t.Run("status filter", func(t *testing.T) {
		status := models.ProjectStatusActive
		_, err := svc.UpdateProject(p1.ID, UpdateProjectRequest{Status: &status}, alice.ID)
		require.NoError(t, err)

		resp, err := svc.ListProjects(ProjectListRequest{Status: "active"}, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total)
		assert.Equal(t, p1.ID, resp.Items[0].ID)
	})

	t.Run("bad status filter rejected", func(t *testing.T) {
		_, err := svc.ListProjects(ProjectListRequest{Status: "bogus"}, alice.ID)
		assert.True(t, IsValidationError(err))
	})
}

func TestGetProjectStats(t *testing.T) {
	svc, db := setupProjectService(t)
	owner := createTestUser(t, db, "owner@example.com")
	project := createTestProject(t, svc, owner.ID, "Stats")
	pid := project.ID

	for i := 0; i < 2; i++ {
		require.NoError(t, db.CreateTask(&models.Task{
			ProjectID: &pid,
			Title:     fmt.Sprintf("Task %d", i+1),
			Status:    models.TaskStatusDone,
			CreatedBy: owner.ID,
		}))
	}

	stats, err := svc.GetProjectStats(project.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 2, stats.CompletedTasks)
	assert.Equal(t, 100, stats.CompletionRate)
	assert.Equal(t, 100, stats.ProgressPercentage)

	t.Run("stranger denied", func(t *testing.T) {
		stranger := createTestUser(t, db, "stranger@example.com")
		_, err := svc.GetProjectStats(project.ID, stranger.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("missing project is nil", func(t *testing.T) {
		got, err := svc.GetProjectStats(9999, 0)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
