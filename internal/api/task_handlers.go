package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/internal/models"
	"github.com/taskboard-hq/taskboard/internal/service"
)

func (h *Handler) CreateTask(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.CreateTask(req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := h.tasks.GetTask(id, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "get task")
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c *gin.Context) {
	var filter database.TaskFilter

	if pidStr := c.Query("project_id"); pidStr != "" {
		pid, err := strconv.ParseUint(pidStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}
		pidUint := uint(pid)
		filter.ProjectID = &pidUint
	}
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.TaskStatus(statusStr)
		filter.Status = &s
	}
	if assigneeStr := c.Query("assignee_id"); assigneeStr != "" {
		aid, err := strconv.ParseUint(assigneeStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID"})
			return
		}
		aidUint := uint(aid)
		filter.AssigneeID = &aidUint
	}
	filter.IncludeArchived = c.Query("include_archived") == "true"

	tasks, err := h.tasks.ListTasks(filter, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "list tasks")
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.UpdateTask(id, req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "update task")
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	deleted, err := h.tasks.DeleteTask(id, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "delete task")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) ListSubtasks(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := h.tasks.GetTask(taskID, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "list subtasks")
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": task.Subtasks,
		"stats": task.SubtaskStats,
	})
}

func (h *Handler) CreateSubtask(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var req service.SubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtask, err := h.tasks.CreateSubtask(taskID, req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "create subtask")
		return
	}
	if subtask == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusCreated, subtask)
}

func (h *Handler) UpdateSubtask(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}
	subtaskID, err := parseIDParam(c, "subtask_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtask ID"})
		return
	}

	var req service.UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtask, err := h.tasks.UpdateSubtask(taskID, subtaskID, req, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "update subtask")
		return
	}
	if subtask == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
		return
	}

	c.JSON(http.StatusOK, subtask)
}

func (h *Handler) DeleteSubtask(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}
	subtaskID, err := parseIDParam(c, "subtask_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subtask ID"})
		return
	}

	deleted, err := h.tasks.DeleteSubtask(taskID, subtaskID, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "delete subtask")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subtask not found"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) AddComment(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.tasks.AddComment(taskID, req.Content, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "add comment")
		return
	}
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}
