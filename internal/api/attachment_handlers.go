package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/models"
)

func (h *Handler) UploadAttachment(c *gin.Context) {
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	task, err := h.tasks.GetTask(taskID, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "upload attachment")
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var projectID uint
	if task.ProjectID != nil {
		projectID = *task.ProjectID
	}
	path, err := h.storage.SaveFile(file, projectID, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	attachment := models.Attachment{
		Filename: file.Filename,
		Path:     path,
		Size:     file.Size,
		MimeType: file.Header.Get("Content-Type"),
	}
	if err := h.tasks.AddAttachment(taskID, &attachment, c.GetUint("userID")); err != nil {
		respondServiceError(c, err, "save attachment record")
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attachment ID"})
		return
	}

	attachment, err := h.tasks.GetAttachment(id, c.GetUint("userID"))
	if err != nil {
		respondServiceError(c, err, "get attachment")
		return
	}
	if attachment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return
	}

	file, err := h.storage.GetFile(attachment.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	file.Close()

	c.FileAttachment(file.Name(), attachment.Filename)
}
