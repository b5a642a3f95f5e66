package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/service"
	"github.com/taskboard-hq/taskboard/pkg/logger"
)

// respondServiceError maps service error kinds to HTTP statuses.
// Anything unrecognized is a provider failure: the cause is logged and
// the client gets a generic operation-named message.
func respondServiceError(c *gin.Context, err error, op string) {
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateMember),
		errors.Is(err, service.ErrImmutableOwnerRole),
		errors.Is(err, service.ErrCannotRemoveOwner),
		errors.Is(err, service.ErrProjectHasTasks):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error().Err(err).Str("op", op).Msg("operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
	}
}
