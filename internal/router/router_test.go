package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/config"
	"github.com/noah-isme/fablab-print-api/internal/database"
	"github.com/noah-isme/fablab-print-api/internal/handler"
	"github.com/noah-isme/fablab-print-api/internal/middleware"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/router"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

const (
	testJWTSecret = "workstation-secret"
	stlBody       = "solid part\nfacet normal 0 0 1\nendsolid part\n"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	app    *fiber.App
	db     *gorm.DB
	layout storage.Layout
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.Connect("sqlite", filepath.Join(t.TempDir(), "fablab.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())

	cfg := config.Config{
		AppName:         "FabLab Print API",
		AppEnv:          "test",
		JWTSecret:       testJWTSecret,
		SubmitRateLimit: 100,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	jobRepo := repository.NewJobRepository(db)
	txManager := repository.NewTxManager(db)
	events := service.NewEventService(repository.NewEventRepository(db), logger)
	staff := service.NewStaffService(repository.NewStaffRepository(db), validate, logger)
	_, err = staff.Seed(context.Background())
	require.NoError(t, err)

	files := service.NewFileSynchronizer(layout, logger)
	mailer := service.NewLogMailer(logger)
	jobs := service.NewJobService(service.JobDependencies{
		Jobs:          jobRepo,
		Tx:            txManager,
		Events:        events,
		Staff:         staff,
		Files:         files,
		Tokens:        service.NewTokenService("confirm-secret", 72*time.Hour),
		Mailer:        mailer,
		Validator:     validate,
		PublicBaseURL: "http://localhost:8080",
	}, logger)
	submit := service.NewSubmitService(jobRepo, txManager, events, files, mailer, nil, validate, 1<<20, logger)
	audit := service.NewAuditService(layout, jobRepo, events, staff, nil, logger)
	stats := service.NewStatsService(jobRepo, nil, time.Minute, logger)
	auth := service.NewAuthService(map[string]string{"front-desk": "desk-pass"}, testJWTSecret, time.Hour, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth, logger),
		SubmitHandler:    handler.NewSubmitHandler(submit, jobs, logger),
		JobHandler:       handler.NewJobHandler(jobs, logger),
		StaffHandler:     handler.NewStaffHandler(staff, logger),
		AuditHandler:     handler.NewAuditHandler(audit, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(events, stats, logger),
		JWTMiddleware:    middleware.JWTProtected(testJWTSecret),
	})

	server := &testServer{app: app, db: db, layout: layout}
	server.token = server.login(t)
	return server
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"workstation_id": "front-desk",
		"password":       "desk-pass",
	}, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func (s *testServer) do(t *testing.T, method, path string, payload interface{}, authorized bool) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authorized {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func (s *testServer) submit(t *testing.T, email, content string) (*http.Response, envelope) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"student_name":                "Ada Lovelace",
		"student_email":               email,
		"discipline":                  "Engineering",
		"class_number":                "ENGR 101",
		"printer":                     "Prusa MK4",
		"color":                       "Black",
		"material":                    "PLA",
		"acknowledged_minimum_charge": "true",
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", "bracket.stl")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submit", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return s.send(t, req)
}

func (s *testServer) confirmToken(t *testing.T, id string) string {
	t.Helper()
	var job models.Job
	require.NoError(t, s.db.First(&job, "id = ?", id).Error)
	require.NotNil(t, job.ConfirmToken)
	return *job.ConfirmToken
}

func decodeJob(t *testing.T, body envelope) map[string]interface{} {
	t.Helper()
	var job map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &job))
	return job
}

func TestPrintJobLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, body := server.submit(t, "Ada@Example.edu", stlBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	var created struct {
		JobID   string `json:"job_id"`
		ShortID string `json:"short_id"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Equal(t, "UPLOADED", created.Status)
	require.Len(t, created.ShortID, 8)

	resp, body = server.submit(t, "ada@example.edu", stlBody)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var details map[string]string
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.Equal(t, created.JobID, details["existing_job_id"])

	jobPath := "/api/v1/jobs/" + created.JobID

	resp, _ = server.do(t, http.MethodGet, jobPath, nil, false)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body = server.do(t, http.MethodPost, jobPath+"/approve", map[string]interface{}{
		"staff_name": "Jane Smith",
		"weight_g":   45.5,
		"time_hours": 2,
	}, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	job := decodeJob(t, body)
	require.Equal(t, "PENDING", job["status"])
	require.InDelta(t, 4.55, job["cost_usd"], 0.0001)

	token := server.confirmToken(t, created.JobID)
	resp, body = server.do(t, http.MethodGet, "/api/v1/submit/confirm/"+token, nil, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	require.Equal(t, "job confirmed", body.Message)

	resp, body = server.do(t, http.MethodPost, "/api/v1/submit/confirm/"+token, nil, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "job already confirmed", body.Message)

	for _, action := range []string{"mark-printing", "mark-complete"} {
		resp, body = server.do(t, http.MethodPost, jobPath+"/"+action, map[string]string{"staff_name": "Jane Smith"}, true)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, action+": "+body.Message)
	}

	resp, _ = server.do(t, http.MethodDelete, jobPath, nil, true)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = server.do(t, http.MethodPost, jobPath+"/payment", map[string]interface{}{
		"staff_name":   "John Doe",
		"grams":        50,
		"txn_no":       "TXN-1",
		"picked_up_by": "Ada Lovelace",
	}, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	job = decodeJob(t, body)
	require.Equal(t, "PAIDPICKEDUP", job["status"])

	finalPath := filepath.Join(server.layout.DirFor(models.JobStatusPaidPickedUp), filepath.Base(job["file_path"].(string)))
	require.True(t, storage.Exists(finalPath))

	resp, body = server.do(t, http.MethodGet, jobPath+"/events", nil, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &events))
	require.NotEmpty(t, events)
	require.Equal(t, "JobCreated", events[0]["event_type"])

	resp, body = server.do(t, http.MethodGet, "/api/v1/_diag", nil, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var diag struct {
		JobCounts map[string]int64 `json:"job_counts"`
		TotalJobs int64            `json:"total_jobs"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &diag))
	require.Equal(t, int64(1), diag.TotalJobs)
	require.Equal(t, int64(1), diag.JobCounts["PAIDPICKEDUP"])

	resp, body = server.do(t, http.MethodGet, "/api/v1/admin/audit/report", nil, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report struct {
		BrokenLinks   []interface{} `json:"broken_links"`
		OrphanedFiles []string      `json:"orphaned_files"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &report))
	require.Empty(t, report.BrokenLinks)
	require.Empty(t, report.OrphanedFiles)
}

func TestMarkPrintingFromWrongStatusIsBadRequest(t *testing.T) {
	server := newTestServer(t)

	resp, body := server.submit(t, "grace@example.edu", stlBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, body = server.do(t, http.MethodPost, "/api/v1/jobs/"+created.JobID+"/mark-printing", map[string]string{"staff_name": "Nobody"}, true)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body.Message, "transition")

	resp, _ = server.do(t, http.MethodPost, "/api/v1/jobs/missing/mark-printing", map[string]string{"staff_name": "Jane Smith"}, true)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = server.do(t, http.MethodDelete, "/api/v1/jobs/"+created.JobID, nil, true)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestPublicEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, body := server.do(t, http.MethodGet, "/api/v1/health", nil, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.Equal(t, "FabLab Print API", resp.Header.Get("X-Application"))

	resp, _ = server.do(t, http.MethodGet, "/metrics", nil, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"workstation_id": "front-desk",
		"password":       "wrong",
	}, false)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = server.do(t, http.MethodGet, "/api/v1/submit/confirm/not-a-token", nil, false)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = server.do(t, http.MethodGet, "/api/v1/staff", nil, true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var staff []map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Data, &staff))
	require.Len(t, staff, 2)
}
