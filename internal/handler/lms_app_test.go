package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/nxtgen-lms-api/internal/config"
	"github.com/noah-isme/nxtgen-lms-api/internal/handler"
	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/repository"
	"github.com/noah-isme/nxtgen-lms-api/internal/router"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/utils"
	"github.com/noah-isme/nxtgen-lms-api/pkg/ai"
)

const testUserHeader = "X-Test-User"

type lmsApp struct {
	app     *fiber.App
	db      *gorm.DB
	changes service.ChangeService
}

type stubGenerator struct {
	answer string
	err    error
	prompt ai.Prompt
}

func (g *stubGenerator) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.example.com/" + name, nil
}

// testIdentity stands in for token verification: the caller's user id travels in a plain header.
func testIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Get(testUserHeader))
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}
		c.Locals(middleware.LocalUserID, id)
		return c.Next()
	}
}

func setupLMSApp(t *testing.T, generator ai.Generator) lmsApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	profiles := repository.NewProfileRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	files := repository.NewCourseFileRepository(db)

	changes := service.NewChangeService(nil, "", nil, logger)
	enrollmentService := service.NewEnrollmentService(courses, enrollments, changes, logger)
	summaryService := service.NewGradeSummaryService(courses, enrollments, submissions, nil, 0, logger)
	courseService := service.NewCourseService(courses, enrollments, assignments, enrollmentService, changes, validate, logger)
	assignmentService := service.NewAssignmentService(courses, enrollments, assignments, submissions, enrollmentService, changes, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Courses:     courses,
		Enrollments: enrollments,
		Assignments: assignments,
		Submissions: submissions,
		Resolver:    enrollmentService,
		Summaries:   summaryService,
		Changes:     changes,
	}, validate, logger)
	attendanceService := service.NewAttendanceService(courses, enrollments, attendance, changes, validate, logger)
	fileService := service.NewCourseFileService(courses, enrollments, files, stubUploader{}, changes, validate, 1<<20, logger)
	dashboardService := service.NewDashboardService(enrollmentService, courseService, assignments, submissions, summaryService, logger)
	assistantService := service.NewAssistantService(service.AssistantDependencies{
		Courses:     courses,
		Enrollments: enrollments,
		Assignments: assignments,
		Submissions: submissions,
		Attendance:  attendance,
		Generator:   generator,
	}, logger)

	cfg := config.Config{AppName: "Nxtgen LMS Test", AppEnv: "test", AssistantRateLimit: 100}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		ProfileHandler:      handler.NewProfileHandler(service.NewProfileService(profiles, changes, validate, logger), logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		GradeSummaryHandler: handler.NewGradeSummaryHandler(summaryService, logger),
		AttendanceHandler:   handler.NewAttendanceHandler(attendanceService, logger),
		CourseFileHandler:   handler.NewCourseFileHandler(fileService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		AssistantHandler:    handler.NewAssistantHandler(assistantService, logger),
		ChangeHandler:       handler.NewChangeHandler(changes, logger),
		JWTMiddleware:       testIdentity(),
		SessionMiddleware:   middleware.Session(profiles, nil, logger),
		DisableMetrics:      true,
	})

	return lmsApp{app: app, db: db, changes: changes}
}

func (a lmsApp) createProfile(t *testing.T, name, role string) models.Profile {
	t.Helper()
	profile := models.Profile{FullName: name, Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, a.db.Create(&profile).Error)
	return profile
}

func (a lmsApp) do(t *testing.T, method, path string, userID uuid.UUID, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != uuid.Nil {
		req.Header.Set(testUserHeader, userID.String())
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, resp *http.Response, out interface{}) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	if out != nil && len(payload.Data) > 0 {
		require.NoError(t, json.Unmarshal(payload.Data, out))
	}
	return payload
}
