package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/service"
)

func (h *Handler) ListProjectMembers(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	members, err := h.projects.ListProjectMembers(projectID, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "list project members")
		return
	}

	c.JSON(http.StatusOK, members)
}

func (h *Handler) AddProjectMember(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var req service.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := h.projects.AddProjectMember(projectID, req, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "add project member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handler) UpdateProjectMember(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}
	targetUserID, err := parseIDParam(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req service.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.projects.UpdateProjectMember(projectID, targetUserID, req, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "update project member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveProjectMember(c *gin.Context) {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}
	targetUserID, err := parseIDParam(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.projects.RemoveProjectMember(projectID, targetUserID, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "remove project member")
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
