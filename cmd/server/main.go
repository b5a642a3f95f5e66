package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/taskboard-hq/taskboard/internal/api"
	"github.com/taskboard-hq/taskboard/internal/database"
	"github.com/taskboard-hq/taskboard/internal/service"
	"github.com/taskboard-hq/taskboard/internal/storage"
	authpkg "github.com/taskboard-hq/taskboard/pkg/auth"
	"github.com/taskboard-hq/taskboard/pkg/config"
	"github.com/taskboard-hq/taskboard/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to optional config file (env vars take precedence)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level)

	if cfg.JWT.Secret == "" {
		logger.Fatalf("JWT_SECRET must be set")
	}

	db, err := database.NewDatabase(cfg.Database.DataDir)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	fileStorage, err := storage.NewFileStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatalf("Failed to initialize file storage: %v", err)
	}

	jwtManager := authpkg.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

	projectService := service.NewProjectService(db)
	taskService := service.NewTaskService(db)

	handler := api.NewHandler(projectService, taskService, fileStorage)
	authHandler := api.NewAuthHandler(db, jwtManager)

	router := api.SetupRouter(handler, authHandler, db, jwtManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting server on %s", addr)

	if err := router.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
