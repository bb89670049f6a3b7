package main

import (
	"context"
	"errors"
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

	_ "github.com/noah-isme/lms-progress-api/api/swagger"
	"github.com/noah-isme/lms-progress-api/internal/handler"
	"github.com/noah-isme/lms-progress-api/internal/middleware"
	"github.com/noah-isme/lms-progress-api/internal/playback"
	"github.com/noah-isme/lms-progress-api/internal/repository"
	"github.com/noah-isme/lms-progress-api/internal/service"
	"github.com/noah-isme/lms-progress-api/pkg/cache"
	"github.com/noah-isme/lms-progress-api/pkg/config"
	"github.com/noah-isme/lms-progress-api/pkg/database"
	"github.com/noah-isme/lms-progress-api/pkg/export"
	"github.com/noah-isme/lms-progress-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-progress-api/pkg/middleware/requestid"
)

// @title LMS Progress API
// @version 1.0.0
// @description Progress and assessment tracking for course playback
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard degrades to uncached reads without Redis.
		logr.Warn("redis unavailable, dashboard caching disabled")
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	metricsSvc := service.NewMetricsService()
	notificationSvc := service.NewNotificationService(cfg.Notifications, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	achievementSvc := service.NewAchievementService(cfg.Progress.CompletionThreshold)
	activitySvc := service.NewActivityService()
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments:  enrollmentRepo,
		Attempts:     attemptRepo,
		Quizzes:      quizRepo,
		Achievements: achievementSvc,
		Activity:     activitySvc,
		Cache:        cacheRepo,
		Metrics:      metricsSvc,
		Logger:       logr,
		CacheTTL:     cfg.Dashboard.CacheTTL,
	})

	progressSvc := service.NewProgressService(enrollmentRepo, lessonRepo, notificationSvc, dashboardSvc, metricsSvc, cfg.Progress.CompletionThreshold, logr)
	assessmentSvc := service.NewAssessmentService(quizRepo, attemptRepo, dashboardSvc, metricsSvc, logr)
	certificateSvc := service.NewCertificateService(enrollmentRepo, courseRepo, export.NewCertificateRenderer())
	authSvc := service.NewAuthService(cfg.JWT)

	sessions := playback.NewSessionManager(progressSvc, progressSvc, cfg.Playback.PollInterval, logr)
	// Closing a session re-arms the lesson-completed notification for
	// the next session.
	sessions.OnClosed(progressSvc.EndSession)
	defer sessions.CloseAll()

	validate := validator.New()
	progressHandler := handler.NewProgressHandler(progressSvc, validate)
	playbackHandler := handler.NewPlaybackHandler(sessions, metricsSvc, validate)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, validate)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/enrollments", progressHandler.ListEnrollments)
		api.POST("/enrollments", progressHandler.Enroll)
		api.POST("/progress/lessons", progressHandler.Record)
		api.GET("/progress/courses/:courseId", progressHandler.CourseProgress)

		api.POST("/playback/sessions", playbackHandler.Open)
		api.POST("/playback/sessions/:lessonId/events", playbackHandler.Report)
		api.DELETE("/playback/sessions/:lessonId", playbackHandler.Close)

		api.POST("/quizzes/:quizId/attempts", assessmentHandler.Submit)
		api.GET("/quizzes/:quizId/attempts", assessmentHandler.ListForQuiz)
		api.GET("/attempts", assessmentHandler.List)

		api.GET("/dashboard", dashboardHandler.Summary)
		api.GET("/courses/:courseId/certificate", certificateHandler.Download)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
