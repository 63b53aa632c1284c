package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/nxtgen-lms-api/internal/config"
	"github.com/noah-isme/nxtgen-lms-api/internal/handler"
	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProfileHandler      *handler.ProfileHandler
	CourseHandler       *handler.CourseHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	GradeSummaryHandler *handler.GradeSummaryHandler
	AttendanceHandler   *handler.AttendanceHandler
	CourseFileHandler   *handler.CourseFileHandler
	DashboardHandler    *handler.DashboardHandler
	AssistantHandler    *handler.AssistantHandler
	AuthHandler         *handler.AuthHandler
	ChangeHandler       *handler.ChangeHandler
	HealthProbes        map[string]handler.HealthProbe
	JWTMiddleware       fiber.Handler
	SessionMiddleware   fiber.Handler
	DisableMetrics      bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// sign-out must accept tokens the JWT guard would reject
	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	guards := make([]fiber.Handler, 0, 2)
	for _, guard := range []fiber.Handler{deps.JWTMiddleware, deps.SessionMiddleware} {
		if guard != nil {
			guards = append(guards, guard)
		}
	}
	protected := api.Group("", guards...)

	if deps.ProfileHandler != nil {
		deps.ProfileHandler.Register(protected)
	}

	courses := protected.Group("/courses")
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses)
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(courses)
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(protected)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(protected)
	}
	if deps.GradeSummaryHandler != nil {
		deps.GradeSummaryHandler.Register(protected)
	}
	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(protected)
	}
	if deps.CourseFileHandler != nil {
		deps.CourseFileHandler.Register(protected)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(protected)
	}
	if deps.AssistantHandler != nil {
		deps.AssistantHandler.Register(protected, middleware.RateLimit("assistant", cfg.AssistantRateLimit, time.Minute))
	}
	if deps.ChangeHandler != nil {
		deps.ChangeHandler.Register(protected.Group("/changes"))
	}
}
