package service

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
)

func TestStaffDirectoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.staff.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)

	all, err := f.staff.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 3)

	seeded, err := f.staff.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, seeded)

	added, err := f.staff.Add(ctx, dto.StaffCreateRequest{Name: "  Grace Hopper "})
	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", added.Name)
	require.True(t, added.IsActive)

	_, err = f.staff.Add(ctx, dto.StaffCreateRequest{Name: "Grace Hopper"})
	require.ErrorIs(t, err, ErrStaffExists)

	_, err = f.staff.Add(ctx, dto.StaffCreateRequest{Name: " "})
	require.ErrorIs(t, err, ErrValidation)

	off := false
	updated, err := f.staff.SetActive(ctx, "Grace Hopper", dto.StaffUpdateRequest{IsActive: &off})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.NotNil(t, updated.DeactivatedAt)

	_, err = f.staff.RequireActive(ctx, "Grace Hopper")
	require.ErrorIs(t, err, ErrUnauthorizedActor)

	on := true
	updated, err = f.staff.SetActive(ctx, "Grace Hopper", dto.StaffUpdateRequest{IsActive: &on})
	require.NoError(t, err)
	require.Nil(t, updated.DeactivatedAt)

	_, err = f.staff.SetActive(ctx, "Nobody", dto.StaffUpdateRequest{IsActive: &on})
	require.ErrorIs(t, err, ErrStaffNotFound)

	_, err = f.staff.SetActive(ctx, "Grace Hopper", dto.StaffUpdateRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestEventRecordMasksTokensAndDefaultsActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submitJob(t, "ada@example.edu", stlContent).JobID

	event, err := f.events.Record(ctx, EventEntry{
		JobID:   id,
		Type:    models.EventConfirmationResent,
		Details: map[string]interface{}{"confirm_token": "secret", "expires_at": "later"},
	})
	require.NoError(t, err)
	require.Equal(t, "***", event.Details["confirm_token"])
	require.Equal(t, "later", event.Details["expires_at"])
	require.Equal(t, SystemActor, event.TriggeredBy)
	require.Equal(t, PublicWorkstation, event.WorkstationID)

	_, err = f.events.Record(ctx, EventEntry{Type: models.EventJobReviewed})
	require.ErrorIs(t, err, ErrValidation)

	page, err := f.events.List(ctx, dto.EventListRequest{EventType: string(models.EventJobCreated), PageSize: 500})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 100, page.Pagination.PageSize)
	require.Equal(t, 1, page.Pagination.TotalPages)
}

func TestDiagnosticsCachesCountsInRedis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submitJob(t, "ada@example.edu", stlContent).JobID
	f.submitJob(t, "grace@example.edu", stlContent)
	f.driveTo(t, first, models.JobStatusPending)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	svc := NewStatsService(f.jobRepo, redisClient, time.Minute, testLogger())

	resp, err := svc.Diagnostics(ctx)
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.EqualValues(t, 2, resp.TotalJobs)
	require.EqualValues(t, 1, resp.JobCounts[string(models.JobStatusUploaded)])
	require.EqualValues(t, 1, resp.JobCounts[string(models.JobStatusPending)])
	require.EqualValues(t, 0, resp.JobCounts[string(models.JobStatusRejected)])
	require.True(t, mini.Exists(diagnosticsCacheKey))

	f.submitJob(t, "alan@example.edu", stlContent)
	cached, err := svc.Diagnostics(ctx)
	require.NoError(t, err)
	require.True(t, cached.Cached)
	require.EqualValues(t, 2, cached.TotalJobs)

	mini.FastForward(2 * time.Minute)
	fresh, err := svc.Diagnostics(ctx)
	require.NoError(t, err)
	require.False(t, fresh.Cached)
	require.EqualValues(t, 3, fresh.TotalJobs)
}

func TestDiagnosticsWithoutCache(t *testing.T) {
	f := newFixture(t)
	f.submitJob(t, "ada@example.edu", stlContent)

	resp, err := NewStatsService(f.jobRepo, nil, time.Minute, testLogger()).Diagnostics(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, resp.TotalJobs)
	require.Len(t, resp.JobCounts, 7)
}

func TestWorkstationLoginIssuesSignedToken(t *testing.T) {
	svc := NewAuthService(map[string]string{"front-desk": "s3cret"}, "jwt-secret", time.Hour, validator.New(), testLogger())

	_, err := svc.Login(context.Background(), dto.LoginRequest{WorkstationID: "front-desk", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{WorkstationID: "unknown", Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{})
	require.ErrorIs(t, err, ErrValidation)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{WorkstationID: " front-desk ", Password: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, "front-desk", resp.WorkstationID)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("jwt-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "front-desk", claims["workstation_id"])
}

func TestSMTPMailerBuildsMultipartMessage(t *testing.T) {
	var captured struct {
		addr string
		from string
		to   []string
		body string
	}
	mailer := NewMailer(SMTPConfig{Host: "smtp.example.edu", Port: 2525, From: "fablab@example.edu"}, testLogger()).(*SMTPMailer)
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr, captured.from, captured.to, captured.body = addr, from, to, string(msg)
		return nil
	}

	job := models.Job{ID: "abc", StudentName: "Ada", StudentEmail: "ada@example.edu", DisplayName: "bracket.stl"}
	msg, err := ApprovalEmail(job, "https://fablab.example.edu/api/v1/submit/confirm/tok", 72)
	require.NoError(t, err)

	require.True(t, mailer.Send(context.Background(), msg))
	require.Equal(t, "smtp.example.edu:2525", captured.addr)
	require.Equal(t, []string{"ada@example.edu"}, captured.to)
	require.Contains(t, captured.body, "Subject: 3D Print Job Approved - Confirm to Proceed")
	require.Contains(t, captured.body, "multipart/alternative")
	require.Contains(t, captured.body, "text/html; charset=UTF-8")
	require.True(t, strings.Contains(captured.body, "https://fablab.example.edu/api/v1/submit/confirm/tok"))

	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	require.False(t, mailer.Send(context.Background(), msg))
}

func TestLogMailerReportsNotDelivered(t *testing.T) {
	mailer := NewMailer(SMTPConfig{}, testLogger())
	_, isLog := mailer.(*LogMailer)
	require.True(t, isLog)
	require.False(t, mailer.Send(context.Background(), Message{Subject: "x", Recipients: []string{"a@b.c"}}))
}
