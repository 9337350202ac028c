package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/testutil"
	"gorm.io/gorm"
)

type recordingRecorder struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (r *recordingRecorder) Log(_ context.Context, event ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type recordingScheduler struct {
	mu          sync.Mutex
	scheduled   []uint64
	rescheduled []uint64
	cancelled   []uint64
	err         error
}

func (s *recordingScheduler) Schedule(job models.CronJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, job.ID)
	return s.err
}

func (s *recordingScheduler) Reschedule(job models.CronJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rescheduled = append(s.rescheduled, job.ID)
	return s.err
}

func (s *recordingScheduler) Cancel(jobID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, jobID)
	return s.err
}

// testEnv wires every service over one in-memory database.
type testEnv struct {
	db          *gorm.DB
	store       *repository.GormStore
	recorder    *recordingRecorder
	scheduler   *recordingScheduler
	engine      *MaterializationEngine
	settings    *SettingService
	recurrences *RecurrenceService
	templates   *TemplateService
	departments *DepartmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	store := repository.NewStore(db, 5*time.Second)
	recorder := &recordingRecorder{}
	scheduler := &recordingScheduler{}
	logger := zerolog.Nop()

	engine := NewMaterializationEngine(store, recorder, logger)
	settings := NewSettingService(store)
	recurrences := NewRecurrenceService(store, engine, settings, recorder, logger)
	recurrences.SetScheduler(scheduler)

	return &testEnv{
		db:          db,
		store:       store,
		recorder:    recorder,
		scheduler:   scheduler,
		engine:      engine,
		settings:    settings,
		recurrences: recurrences,
		templates:   NewTemplateService(store, engine, nil, recorder, logger),
		departments: NewDepartmentService(store),
	}
}

func (e *testEnv) createClient(t *testing.T, name string) *models.Client {
	t.Helper()
	client := &models.Client{Name: name}
	require.NoError(t, e.db.Create(client).Error)
	return client
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hashedpassword"}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createJob(t *testing.T, clientID uint64, frequency recurrence.Frequency, start time.Time, active bool) *models.CronJob {
	t.Helper()
	job := &models.CronJob{
		Code:      "JOB001",
		ClientID:  clientID,
		Section:   "Payroll",
		Frequency: frequency,
		StartDate: start,
		NextRun:   start,
		IsActive:  active,
	}
	require.NoError(t, e.db.Create(job).Error)
	return job
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wrappedStore lets a test swap repositories inside transactions.
type wrappedStore struct {
	repository.Store
	wrap func(repository.Repositories) repository.Repositories
}

func (s wrappedStore) RunAtomic(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.RunAtomic(ctx, func(repos repository.Repositories) error {
		return fn(s.wrap(repos))
	})
}

type advanceFailingCronJobs struct {
	repository.CronJobRepository
	err error
}

func (r advanceFailingCronJobs) AdvanceRun(uint64, uint64, time.Time, time.Time) error {
	return r.err
}

var errDiskFull = errors.New("disk full")
