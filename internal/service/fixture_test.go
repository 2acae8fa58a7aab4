package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/database"
	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

const (
	activeStaff   = "Jane Smith"
	inactiveStaff = "Peter Jones"
	stlContent    = "solid bracket\nfacet normal 0 0 1\nendsolid bracket\n"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	mu       sync.Mutex
	deliver  bool
	messages []Message
}

func (m *recordingMailer) Send(_ context.Context, msg Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.deliver
}

func (m *recordingMailer) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	subjects := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		subjects = append(subjects, msg.Subject)
	}
	return subjects
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.EventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.EventType)
	}
	return types
}

type fixture struct {
	db        *gorm.DB
	layout    storage.Layout
	jobRepo   repository.JobRepository
	events    EventService
	staff     StaffService
	files     FileSynchronizer
	clock     *testClock
	tokens    *tokenService
	mailer    *recordingMailer
	publisher *recordingPublisher
	jobs      *jobService
	submit    *submitService
	audit     *auditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Connect("sqlite", filepath.Join(t.TempDir(), "fablab.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())

	validate := validator.New()
	clock := &testClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}

	jobRepo := repository.NewJobRepository(db)
	txManager := repository.NewTxManager(db)
	events := NewEventService(repository.NewEventRepository(db), testLogger())
	staff := NewStaffService(repository.NewStaffRepository(db), validate, testLogger())
	_, err = staff.Seed(context.Background())
	require.NoError(t, err)

	files := NewFileSynchronizer(layout, testLogger())
	tokens := &tokenService{secret: []byte("confirm-secret"), maxAge: 72 * time.Hour, now: clock.Now}
	mailer := &recordingMailer{deliver: true}
	publisher := &recordingPublisher{}

	jobs := NewJobService(JobDependencies{
		Jobs:          jobRepo,
		Tx:            txManager,
		Events:        events,
		Staff:         staff,
		Files:         files,
		Tokens:        tokens,
		Mailer:        mailer,
		Publisher:     publisher,
		Validator:     validate,
		PublicBaseURL: "https://fablab.example.edu/",
	}, testLogger()).(*jobService)
	jobs.now = clock.Now

	submit := NewSubmitService(jobRepo, txManager, events, files, mailer, publisher, validate, 1024, testLogger()).(*submitService)
	submit.now = clock.Now

	audit := NewAuditService(layout, jobRepo, events, staff, publisher, testLogger()).(*auditService)

	return &fixture{
		db:        db,
		layout:    layout,
		jobRepo:   jobRepo,
		events:    events,
		staff:     staff,
		files:     files,
		clock:     clock,
		tokens:    tokens,
		mailer:    mailer,
		publisher: publisher,
		jobs:      jobs,
		submit:    submit,
		audit:     audit,
	}
}

func submitRequest(email string) dto.SubmitRequest {
	return dto.SubmitRequest{
		StudentName:               "Ada Lovelace",
		StudentEmail:              email,
		Discipline:                "Engineering",
		ClassNumber:               "ENGR 101",
		Printer:                   "Prusa MK4",
		Color:                     "Black",
		Material:                  "PLA",
		AcknowledgedMinimumCharge: true,
	}
}

func (f *fixture) submitJob(t *testing.T, email, content string) dto.SubmitResponse {
	t.Helper()
	resp, err := f.submit.Submit(context.Background(), submitRequest(email), Upload{
		Filename: "bracket.stl",
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) loadJob(t *testing.T, id string) models.Job {
	t.Helper()
	job, err := f.jobRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return job
}

// requireStored asserts the model file and sidecar sit in the directory for
// status and that the sidecar agrees with the row.
func (f *fixture) requireStored(t *testing.T, id string, status models.JobStatus) {
	t.Helper()
	job := f.loadJob(t, id)
	require.Equal(t, status, job.Status)
	require.Equal(t, status.Directory(), filepath.Base(filepath.Dir(job.FilePath)))
	require.True(t, storage.Exists(job.FilePath), "model file missing at %s", job.FilePath)
	require.True(t, storage.Exists(job.MetadataPath), "sidecar missing at %s", job.MetadataPath)

	meta, err := storage.ReadSidecar(job.MetadataPath)
	require.NoError(t, err)
	require.Equal(t, string(status), meta.Status)
	require.Equal(t, storage.ResolvePath(job.FilePath), meta.FilePath)
}

func (f *fixture) eventTypes(t *testing.T, id string) []models.EventType {
	t.Helper()
	events, err := f.events.ListByJob(context.Background(), id)
	require.NoError(t, err)
	types := make([]models.EventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.EventType)
	}
	return types
}

func staffActor(name string) Actor {
	return Actor{StaffName: name, WorkstationID: "front-desk"}
}
