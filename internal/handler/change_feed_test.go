package handler_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/models"
	"github.com/noah-isme/nxtgen-lms-api/internal/observability"
)

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func TestChangeFeedDeliversCourseEventsToEnrolledStudent(t *testing.T) {
	env := setupLMSApp(t, nil)
	teacher := env.createProfile(t, "Bu Hana", models.RoleTeacher)
	student := env.createProfile(t, "Indra", models.RoleStudent)
	outsider := env.createProfile(t, "Joko", models.RoleStudent)

	resp := env.do(t, http.MethodPost, "/api/v1/courses", teacher.ID, dto.CourseCreateRequest{Title: "Chemistry"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var course dto.CourseResponse
	decodeEnvelope(t, resp, &course)

	resp = env.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/enrollment", student.ID, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	baseURL, shutdown := startFiberServer(t, env.app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/changes/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}

	baseline := testutil.ToFloat64(observability.ChangeSubscribers())

	studentConn, wsResp, err := dialer.Dial(url, http.Header{testUserHeader: {student.ID.String()}})
	require.NoError(t, err)
	if wsResp != nil {
		_ = wsResp.Body.Close()
	}
	defer studentConn.Close()

	outsiderConn, wsResp, err := dialer.Dial(url, http.Header{testUserHeader: {outsider.ID.String()}})
	require.NoError(t, err)
	if wsResp != nil {
		_ = wsResp.Body.Close()
	}
	defer outsiderConn.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(observability.ChangeSubscribers()) >= baseline+2
	}, 2*time.Second, 10*time.Millisecond)

	resp = env.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/assignments", teacher.ID, dto.AssignmentCreateRequest{Title: "Lab report"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var assignment dto.AssignmentResponse
	decodeEnvelope(t, resp, &assignment)

	require.NoError(t, studentConn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var event dto.ChangeEvent
	require.NoError(t, studentConn.ReadJSON(&event))
	require.Equal(t, dto.ChangeTableAssignments, event.Table)
	require.Equal(t, dto.ChangeActionInsert, event.Action)
	require.Equal(t, assignment.ID, event.RecordID)
	require.NotNil(t, event.CourseID)
	require.Equal(t, course.ID, *event.CourseID)

	require.NoError(t, outsiderConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = outsiderConn.ReadMessage()
	require.Error(t, err)
}

func TestChangeFeedRequiresUpgrade(t *testing.T) {
	env := setupLMSApp(t, nil)
	student := env.createProfile(t, "Kiki", models.RoleStudent)

	resp := env.do(t, http.MethodGet, "/api/v1/changes/ws", student.ID, nil)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestCourseFileUploadByEnrolledStudent(t *testing.T) {
	env := setupLMSApp(t, nil)
	teacher := env.createProfile(t, "Bu Lina", models.RoleTeacher)
	student := env.createProfile(t, "Mira", models.RoleStudent)

	resp := env.do(t, http.MethodPost, "/api/v1/courses", teacher.ID, dto.CourseCreateRequest{Title: "Geography"})
	var course dto.CourseResponse
	decodeEnvelope(t, resp, &course)

	resp = env.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/enrollment", student.ID, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("rivers and mountains"))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("description", "<b>Chapter 1</b> notes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/files", body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(testUserHeader, student.ID.String())
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var uploaded dto.CourseFileResponse
	decodeEnvelope(t, resp, &uploaded)
	require.Equal(t, "notes.txt", uploaded.FileName)
	require.Equal(t, "https://files.example.com/notes.txt", uploaded.FileURL)
	require.Equal(t, models.RoleStudent, uploaded.UploaderRole)
	require.NotNil(t, uploaded.Description)
	require.NotContains(t, *uploaded.Description, "<b>")

	resp = env.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.String()+"/files", teacher.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []dto.CourseFileResponse
	decodeEnvelope(t, resp, &listed)
	require.Len(t, listed, 1)

	resp = env.do(t, http.MethodDelete, "/api/v1/files/"+uploaded.ID.String(), teacher.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
