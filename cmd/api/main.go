package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unitutor/scheduling-api/api/swagger"
	"github.com/unitutor/scheduling-api/internal/handler"
	"github.com/unitutor/scheduling-api/internal/middleware"
	"github.com/unitutor/scheduling-api/internal/models"
	"github.com/unitutor/scheduling-api/internal/repository"
	"github.com/unitutor/scheduling-api/internal/service"
	"github.com/unitutor/scheduling-api/pkg/cache"
	"github.com/unitutor/scheduling-api/pkg/config"
	"github.com/unitutor/scheduling-api/pkg/database"
	"github.com/unitutor/scheduling-api/pkg/export"
	"github.com/unitutor/scheduling-api/pkg/logger"
	corsmiddleware "github.com/unitutor/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unitutor/scheduling-api/pkg/middleware/requestid"
)

// @title UniTutor Scheduling API
// @version 1.0.0
// @description Tutoring schedule coordination backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	eventRepo := repository.NewEventRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	sinkSvc := service.NewSinkService(userRepo, notificationRepo, studentRepo, courseRepo, service.SinkConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, metricsSvc, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinkSvc.Start(rootCtx)
	defer sinkSvc.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	eventSvc := service.NewEventService(eventRepo, courseRepo, roomRepo, userRepo, studentRepo, sinkSvc, logr)
	rosterSvc := service.NewRosterService(studentRepo, userRepo, sinkSvc, validate, logr)
	exportSvc := service.NewExportService(eventRepo, courseRepo, roomRepo, userRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	var catalogSvc *service.CatalogService
	if cacheRepo != nil {
		catalogSvc = service.NewCatalogService(courseRepo, roomRepo, userRepo, eventRepo, cacheRepo, cfg.Cache.CatalogTTL, metricsSvc, logr)
	} else {
		catalogSvc = service.NewCatalogService(courseRepo, roomRepo, userRepo, eventRepo, nil, cfg.Cache.CatalogTTL, metricsSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc, catalogSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	auditHandler := handler.NewAuditHandler(userRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/events", eventHandler.List)
		authed.GET("/events/:id", eventHandler.Get)
		authed.POST("/events", eventHandler.Create)
		authed.POST("/events/:id/approve", eventHandler.Approve)
		authed.POST("/events/:id/reject", eventHandler.Reject)
		authed.PUT("/events/:id", eventHandler.Edit)

		authed.GET("/courses", catalogHandler.Courses)
		authed.GET("/courses/:id/tutors", catalogHandler.CourseTutors)
		authed.GET("/rooms", catalogHandler.Rooms)
		authed.GET("/rooms/available", catalogHandler.RoomsAvailable)
		authed.GET("/tutors/:id/schedule", catalogHandler.TutorSchedule)

		authed.GET("/export/events.csv", exportHandler.EventsCSV)
		authed.GET("/tutors/:id/schedule.pdf", exportHandler.TutorSchedulePDF)

		authed.GET("/notifications", notificationHandler.List)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

		authed.GET("/audit",
			middleware.RequireRoles(models.RoleDepartmentAssistant, models.RoleAdministrator),
			auditHandler.List)

		roster := authed.Group("")
		roster.Use(middleware.RequireRoles(models.RoleAcademicAssistant, models.RoleDepartmentAssistant, models.RoleAdministrator))
		{
			roster.POST("/students", rosterHandler.CreateStudent)
			roster.POST("/students/import", rosterHandler.ImportStudents)
			roster.POST("/students/promote", rosterHandler.Promote)
		}

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(models.RoleAdministrator))
		{
			staff.POST("/staff", rosterHandler.CreateStaff)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
