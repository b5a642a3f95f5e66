package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/pkg/auth"
)

// AuthMiddleware validates the Bearer JWT and sets userID in the
// context for downstream handlers.
func AuthMiddleware(db *database.Database, jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authentication token",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		user, err := db.GetUserByID(claims.UserID)
		if err != nil || user == nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown or inactive user",
			})
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("username", user.Username)

		c.Next()
	}
}
