package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/handler"
	"taskdesk/internal/log"
	"taskdesk/internal/middleware"
	"taskdesk/internal/model"
	"taskdesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

func Init(cfg *config.Config) (*Server, error) {
	logger := log.GetLogger()
	log.SetLevel(cfg.LogLevel)

	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	logger.Info("✅ Connected to database")

	if err := runMigrations(db, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("❌ failed to run migrations: %w", err)
	}
	logger.Info("✅ Migrations applied")

	// Setup Gin
	r := gin.Default()
	r.Use(middleware.RequestID())

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	allocRepo := repository.NewAllocationRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	flagRepo := repository.NewFlagRepository(db)

	// The flag catalog is static; load it once for the process lifetime
	flags, err := flagRepo.ListAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("❌ failed to load flag catalog: %w", err)
	}
	catalog := model.NewFlagCatalog(flags)
	logger.Infof("Loaded flag catalog with %d entries", len(flags))

	// Initialize handlers
	taskHandler := handler.NewTaskHandler(taskRepo)
	allocHandler := handler.NewAllocationHandler(allocRepo, taskRepo, resourceRepo)
	commentHandler := handler.NewCommentHandler(commentRepo, taskRepo)
	resourceHandler := handler.NewResourceHandler(resourceRepo)
	flagHandler := handler.NewFlagHandler(catalog)

	// All routes require an authenticated actor
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Task routes
		authorized.GET("/tasks", taskHandler.List)
		authorized.GET("/tasks/search", taskHandler.Search)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.PATCH("/tasks/:id/status", taskHandler.PatchStatus)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		// Linkage routes
		authorized.PATCH("/tasks/:id/parent", taskHandler.SetParent)
		authorized.DELETE("/tasks/:id/parent", taskHandler.ClearParent)

		// Allocation routes
		authorized.PUT("/tasks/:id/allocations", allocHandler.Replace)
		authorized.GET("/tasks/:id/allocations", allocHandler.History)
		authorized.DELETE("/tasks/:id/allocations/:allocation_id", allocHandler.Remove)

		// Comment routes
		authorized.POST("/tasks/:id/comments", commentHandler.Append)

		// Directory and catalog routes
		authorized.GET("/resources", resourceHandler.Search)
		authorized.GET("/flags", flagHandler.List)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func runMigrations(db *gorm.DB, path string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(path, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Server) Run() {
	logger := log.GetLogger()

	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		logger.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	logger.Info("✅ Server exited properly")
}
