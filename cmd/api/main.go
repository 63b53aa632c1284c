package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/nxtgen-lms-api/internal/config"
	"github.com/noah-isme/nxtgen-lms-api/internal/database"
	"github.com/noah-isme/nxtgen-lms-api/internal/handler"
	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/router"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
	"github.com/noah-isme/nxtgen-lms-api/pkg/ai"
	cloud "github.com/noah-isme/nxtgen-lms-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "nxtgen-lms-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; summaries are uncached and sign-out cannot revoke tokens")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	var uploader service.FileUploader
	store, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	switch {
	case err == nil:
		uploader = store
	case errors.Is(err, cloud.ErrMissingCredentials):
		logger.Warn().Msg("cloudinary not configured; course file uploads are disabled")
	default:
		logger.Fatal().Err(err).Msg("failed to create cloudinary client")
	}

	var generator ai.Generator
	openAI, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.AIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Logger:      logger,
	})
	switch {
	case err == nil:
		generator = openAI
	case errors.Is(err, ai.ErrMissingAPIKey):
		logger.Warn().Msg("openai api key not configured; assistant is unavailable")
	default:
		logger.Fatal().Err(err).Msg("failed to create assistant generator")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	verifier := session.NewVerifier(cfg.JWTSecret)

	var denylist session.Denylist
	if redisClient != nil {
		denylist = session.NewRedisDenylist(redisClient)
	}

	profileRepo := repository.NewProfileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	courseFileRepo := repository.NewCourseFileRepository(db)

	changeService := service.NewChangeService(redisClient, cfg.ChangesChannel, natsConn, logger)
	changeService.Start(ctx)

	enrollmentService := service.NewEnrollmentService(courseRepo, enrollmentRepo, changeService, logger)
	summaryService := service.NewGradeSummaryService(courseRepo, enrollmentRepo, submissionRepo, redisClient, cfg.SummaryCacheTTL, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, assignmentRepo, enrollmentService, changeService, validate, logger)
	assignmentService := service.NewAssignmentService(courseRepo, enrollmentRepo, assignmentRepo, submissionRepo, enrollmentService, changeService, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Resolver:    enrollmentService,
		Summaries:   summaryService,
		Changes:     changeService,
	}, validate, logger)
	attendanceService := service.NewAttendanceService(courseRepo, enrollmentRepo, attendanceRepo, changeService, validate, logger)
	courseFileService := service.NewCourseFileService(courseRepo, enrollmentRepo, courseFileRepo, uploader, changeService, validate, cfg.UploadMaxBytes(), logger)
	dashboardService := service.NewDashboardService(enrollmentService, courseService, assignmentRepo, submissionRepo, summaryService, logger)
	profileService := service.NewProfileService(profileRepo, changeService, validate, logger)
	assistantService := service.NewAssistantService(service.AssistantDependencies{
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Attendance:  attendanceRepo,
		Generator:   generator,
	}, logger)
	sessionService := service.NewSessionService(verifier, denylist, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes()) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ProfileHandler:      handler.NewProfileHandler(profileService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		GradeSummaryHandler: handler.NewGradeSummaryHandler(summaryService, logger),
		AttendanceHandler:   handler.NewAttendanceHandler(attendanceService, logger),
		CourseFileHandler:   handler.NewCourseFileHandler(courseFileService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		AssistantHandler:    handler.NewAssistantHandler(assistantService, logger),
		AuthHandler:         handler.NewAuthHandler(sessionService, logger),
		ChangeHandler:       handler.NewChangeHandler(changeService, logger),
		HealthProbes:        healthProbes(db, redisClient, natsConn),
		JWTMiddleware:       middleware.JWTProtected(verifier, denylist),
		SessionMiddleware:   middleware.Session(profileRepo, denylist, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}

	return probes
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
