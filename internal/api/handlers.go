package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/service"
	"github.com/taskboard-hq/taskboard/internal/storage"
)

type Handler struct {
	projects *service.ProjectService
	tasks    *service.TaskService
	storage  *storage.FileStorage
}

func NewHandler(projects *service.ProjectService, tasks *service.TaskService, fileStorage *storage.FileStorage) *Handler {
	return &Handler{
		projects: projects,
		tasks:    tasks,
		storage:  fileStorage,
	}
}

func (h *Handler) ListProjects(c *gin.Context) {
	var req service.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.projects.ListProjects(req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "list projects")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	if c.Query("include_stats") == "true" {
		project, err := h.projects.GetProjectWithStats(id, c.GetUint("userID"))
		if err != nil {
			respondServiceError(c, err, "get project")
			return
		}
		if project == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusOK, project)
		return
	}

	project, err := h.projects.GetProject(id, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "get project")
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) GetProjectStats(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	stats, err := h.projects.GetProjectStats(id, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "get project stats")
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.CreateProject(req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "create project")
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.UpdateProject(id, req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "update project")
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	if err := h.projects.DeleteProject(id, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "delete project")
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) BulkUpdateProjects(c *gin.Context) {
	var req service.BulkUpdateProjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.projects.BulkUpdateProjects(req, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "bulk update projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
