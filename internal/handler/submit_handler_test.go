package handler_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/handler"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/service"
)

type mockSubmitService struct {
	err         error
	lastRequest dto.SubmitRequest
	lastName    string
	lastContent string
}

func (m *mockSubmitService) Submit(_ context.Context, req dto.SubmitRequest, upload service.Upload) (dto.SubmitResponse, error) {
	m.lastRequest = req
	m.lastName = upload.Filename
	content, err := io.ReadAll(upload.Content)
	if err != nil {
		return dto.SubmitResponse{}, err
	}
	m.lastContent = string(content)
	if m.err != nil {
		return dto.SubmitResponse{}, m.err
	}
	return dto.SubmitResponse{JobID: "job-1", ShortID: "ABCD1234", Status: string(models.JobStatusUploaded)}, nil
}

func newSubmitApp(submit service.SubmitService, jobs service.JobService) *fiber.App {
	app := fiber.New()
	handler.NewSubmitHandler(submit, jobs, zerolog.New(io.Discard)).Register(app.Group("/api/v1/submit"), nil)
	return app
}

func multipartRequest(t *testing.T, withFile bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("student_name", "Ada Lovelace"))
	require.NoError(t, writer.WriteField("student_email", "ada@example.edu"))
	require.NoError(t, writer.WriteField("printer", "Prusa MK4"))
	require.NoError(t, writer.WriteField("acknowledged_minimum_charge", "true"))
	if withFile {
		part, err := writer.CreateFormFile("file", "bracket.stl")
		require.NoError(t, err)
		_, err = part.Write([]byte("solid bracket\nendsolid bracket\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submit", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmitHandler_Created(t *testing.T) {
	svc := &mockSubmitService{}
	app := newSubmitApp(svc, &mockJobService{})

	resp, err := app.Test(multipartRequest(t, true))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body apiResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "Ada Lovelace", svc.lastRequest.StudentName)
	require.Equal(t, "Prusa MK4", svc.lastRequest.Printer)
	require.True(t, svc.lastRequest.AcknowledgedMinimumCharge)
	require.Equal(t, "bracket.stl", svc.lastName)
	require.Contains(t, svc.lastContent, "solid bracket")
}

func TestSubmitHandler_MissingFile(t *testing.T) {
	svc := &mockSubmitService{}
	app := newSubmitApp(svc, &mockJobService{})

	resp, err := app.Test(multipartRequest(t, false))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.lastName)
}

func TestSubmitHandler_ErrorMapping(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		app := newSubmitApp(&mockSubmitService{err: &service.DuplicateJobError{ExistingJobID: "job-0"}}, &mockJobService{})

		resp, err := app.Test(multipartRequest(t, true))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusConflict, resp.StatusCode)

		var body apiResponse
		decodeResponse(t, resp, &body)
		require.Equal(t, "job-0", body.Details["existing_job_id"])
	})

	t.Run("too large", func(t *testing.T) {
		app := newSubmitApp(&mockSubmitService{err: service.ErrUploadTooLarge}, &mockJobService{})

		resp, err := app.Test(multipartRequest(t, true))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("invalid extension", func(t *testing.T) {
		app := newSubmitApp(&mockSubmitService{err: &service.ValidationError{Field: "file", Reason: "must be .stl, .obj or .3mf"}}, &mockJobService{})

		resp, err := app.Test(multipartRequest(t, true))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestSubmitHandler_Confirm(t *testing.T) {
	jobs := &mockJobService{}
	app := newSubmitApp(&mockSubmitService{}, jobs)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/v1/submit/confirm/signed.token", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "signed.token", jobs.lastID)
	}

	cases := []struct {
		err    error
		status int
	}{
		{service.ErrTokenExpired, fiber.StatusGone},
		{service.ErrTokenInvalid, fiber.StatusBadRequest},
		{service.ErrJobNotFound, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		jobs.err = tc.err
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submit/confirm/signed.token", nil))
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
	}
}
