// Package scheduler fires recurring jobs at their next run time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/models"
)

// ExecuteFunc runs one job at now. It is the engine's execute entry point.
type ExecuteFunc func(ctx context.Context, jobID uint64, now time.Time) error

// Option configures a CronTrigger.
type Option func(*CronTrigger)

// WithLocation sets the timezone the cron runner reports times in.
func WithLocation(loc *time.Location) Option {
	return func(t *CronTrigger) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithCatchUpDelay sets how long after scheduling an overdue job fires.
func WithCatchUpDelay(d time.Duration) Option {
	return func(t *CronTrigger) {
		if d > 0 {
			t.catchUp = d
		}
	}
}

// WithExecTimeout bounds a single execution.
func WithExecTimeout(d time.Duration) Option {
	return func(t *CronTrigger) {
		t.execTimeout = d
	}
}

// CronTrigger keeps one one-shot cron entry per job, due at the job's
// NextRun. An entry is dropped after it fires.
type CronTrigger struct {
	cron        *cron.Cron
	execute     ExecuteFunc
	logger      zerolog.Logger
	catchUp     time.Duration
	execTimeout time.Duration

	mu      sync.Mutex
	loc     *time.Location
	entries map[uint64]cron.EntryID
}

// NewCronTrigger creates a stopped CronTrigger.
func NewCronTrigger(execute ExecuteFunc, logger zerolog.Logger, opts ...Option) *CronTrigger {
	t := &CronTrigger{
		execute:     execute,
		logger:      logger.With().Str("component", "cron_trigger").Logger(),
		loc:         time.UTC,
		catchUp:     time.Second,
		execTimeout: time.Minute,
		entries:     make(map[uint64]cron.EntryID),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cron = cron.New(
		cron.WithLocation(t.loc),
		cron.WithLogger(cronLogger{t.logger}),
		cron.WithChain(cron.Recover(cronLogger{t.logger})),
	)
	return t
}

// Start runs the cron loop in its own goroutine.
func (t *CronTrigger) Start() {
	t.cron.Start()
	t.logger.Info().Str("location", t.Location().String()).Msg("cron trigger started")
}

// SetLocation changes the timezone executions are stamped in. Pending
// entries keep their instants.
func (t *CronTrigger) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	t.mu.Lock()
	t.loc = loc
	t.mu.Unlock()
	t.logger.Info().Str("location", loc.String()).Msg("cron trigger location changed")
}

// Location returns the timezone executions are stamped in.
func (t *CronTrigger) Location() *time.Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loc
}

// Stop stops the loop and waits for running executions.
func (t *CronTrigger) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info().Msg("cron trigger stopped")
}

// Schedule adds an entry for job at job.NextRun. Inactive jobs are not
// scheduled and lose any existing entry.
func (t *CronTrigger) Schedule(job models.CronJob) error {
	if job.ID == 0 {
		return errors.New("scheduler: job has no id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(job.ID)
	if !job.IsActive {
		return nil
	}

	at := job.NextRun
	if now := time.Now(); !at.After(now) {
		at = now.Add(t.catchUp)
	}

	jobID := job.ID
	entryID := t.cron.Schedule(oneShot{at: at}, cron.FuncJob(func() { t.fire(jobID) }))
	t.entries[jobID] = entryID

	t.logger.Debug().Uint64("cron_job_id", jobID).Time("at", at.In(t.loc)).Msg("job scheduled")
	return nil
}

// Reschedule replaces the job's entry.
func (t *CronTrigger) Reschedule(job models.CronJob) error {
	return t.Schedule(job)
}

// Cancel removes the job's entry, if any.
func (t *CronTrigger) Cancel(jobID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(jobID)
	return nil
}

// Scheduled reports the time the job is due to fire.
func (t *CronTrigger) Scheduled(jobID uint64) (time.Time, bool) {
	t.mu.Lock()
	entryID, ok := t.entries[jobID]
	t.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := t.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	shot, ok := entry.Schedule.(oneShot)
	if !ok {
		return time.Time{}, false
	}
	return shot.at, true
}

// Len returns the number of pending entries.
func (t *CronTrigger) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *CronTrigger) removeLocked(jobID uint64) {
	if entryID, ok := t.entries[jobID]; ok {
		t.cron.Remove(entryID)
		delete(t.entries, jobID)
	}
}

func (t *CronTrigger) fire(jobID uint64) {
	t.mu.Lock()
	t.removeLocked(jobID)
	loc := t.loc
	t.mu.Unlock()

	ctx := context.Background()
	if t.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.execTimeout)
		defer cancel()
	}

	now := time.Now().In(loc)
	if err := t.execute(ctx, jobID, now); err != nil {
		t.logger.Warn().Err(err).Uint64("cron_job_id", jobID).Msg("scheduled execution rejected")
		return
	}
	t.logger.Info().Uint64("cron_job_id", jobID).Time("now", now).Msg("scheduled execution completed")
}

// oneShot is a cron.Schedule that activates once at a fixed instant.
type oneShot struct {
	at time.Time
}

func (s oneShot) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
