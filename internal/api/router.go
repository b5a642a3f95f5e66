package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskboard-hq/taskboard/internal/auth"
	"github.com/taskboard-hq/taskboard/internal/database"
	authpkg "github.com/taskboard-hq/taskboard/pkg/auth"
	"github.com/taskboard-hq/taskboard/pkg/logger"
)

func SetupRouter(handler *Handler, authHandler *AuthHandler, db *database.Database, jwtManager *authpkg.JWTManager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())
	router.Use(cors.Default())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(db, jwtManager))
	{
		projects := api.Group("/projects")
		{
			projects.GET("", handler.ListProjects)
			projects.POST("", handler.CreateProject)
			projects.POST("/bulk", handler.BulkUpdateProjects)
			projects.GET("/:id", handler.GetProject)
			projects.PUT("/:id", handler.UpdateProject)
			projects.DELETE("/:id", handler.DeleteProject)
			projects.GET("/:id/stats", handler.GetProjectStats)

			projects.GET("/:id/members", handler.ListProjectMembers)
			projects.POST("/:id/members", handler.AddProjectMember)
			projects.PUT("/:id/members/:user_id", handler.UpdateProjectMember)
			projects.DELETE("/:id/members/:user_id", handler.RemoveProjectMember)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", handler.CreateTask)
			tasks.GET("", handler.ListTasks)
			tasks.GET("/:id", handler.GetTask)
			tasks.PUT("/:id", handler.UpdateTask)
			tasks.DELETE("/:id", handler.DeleteTask)

			tasks.GET("/:id/subtasks", handler.ListSubtasks)
			tasks.POST("/:id/subtasks", handler.CreateSubtask)
			tasks.PUT("/:id/subtasks/:subtask_id", handler.UpdateSubtask)
			tasks.DELETE("/:id/subtasks/:subtask_id", handler.DeleteSubtask)

			tasks.POST("/:id/comments", handler.AddComment)
			tasks.POST("/:id/attachments", handler.UploadAttachment)
		}

		api.GET("/attachments/:id", handler.DownloadAttachment)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
		})
	})

	return router
}
