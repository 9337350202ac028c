package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/repository"
)

// Scheduler is the trigger that decides when recurring jobs run. The core
// only notifies it; it never owns a timer.
type Scheduler interface {
	Schedule(job models.CronJob) error
	Reschedule(job models.CronJob) error
	Cancel(jobID uint64) error
}

// ActivityEvent is one audit entry.
type ActivityEvent struct {
	Action     string
	EntityType string
	EntityID   uint64
	ActorID    *uint64
	Details    map[string]any
}

// Activity actions
const (
	ActionCronJobDefined     = "cron_job.defined"
	ActionCronJobUpdated     = "cron_job.updated"
	ActionCronJobDeactivated = "cron_job.deactivated"
	ActionCronJobExecuted    = "cron_job.executed"
	ActionPresetDefined      = "preset_project.defined"
	ActionPresetApplied      = "preset_project.applied"
)

// ActivityRecorder is a best-effort audit sink.
type ActivityRecorder interface {
	Log(ctx context.Context, event ActivityEvent) error
}

// GormActivityRecorder stores events as ActivityLog rows.
type GormActivityRecorder struct {
	store repository.Store
}

// NewActivityRecorder creates a new GormActivityRecorder.
func NewActivityRecorder(store repository.Store) *GormActivityRecorder {
	return &GormActivityRecorder{store: store}
}

// Log writes event outside any caller transaction.
func (r *GormActivityRecorder) Log(ctx context.Context, event ActivityEvent) error {
	entry := &models.ActivityLog{
		EventID:    uuid.NewString(),
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		ActorID:    event.ActorID,
		Details:    event.Details,
	}
	return r.store.Repositories(ctx).Activities.Create(entry)
}

// notifier wraps the two collaborators whose failures are logged and never
// returned to the caller of the primary operation.
type notifier struct {
	scheduler Scheduler
	recorder  ActivityRecorder
	logger    zerolog.Logger
}

func (n notifier) record(ctx context.Context, event ActivityEvent) {
	if n.recorder == nil {
		return
	}
	if err := n.recorder.Log(ctx, event); err != nil {
		n.logger.Warn().Err(err).
			Str("action", event.Action).
			Str("entity_type", event.EntityType).
			Uint64("entity_id", event.EntityID).
			Msg("activity recorder failed")
	}
}

func (n notifier) schedule(job models.CronJob) {
	if n.scheduler == nil {
		return
	}
	if err := n.scheduler.Schedule(job); err != nil {
		n.logger.Warn().Err(err).Uint64("cron_job_id", job.ID).Msg("scheduler schedule failed")
	}
}

func (n notifier) reschedule(job models.CronJob) {
	if n.scheduler == nil {
		return
	}
	if err := n.scheduler.Reschedule(job); err != nil {
		n.logger.Warn().Err(err).Uint64("cron_job_id", job.ID).Msg("scheduler reschedule failed")
	}
}

func (n notifier) cancel(jobID uint64) {
	if n.scheduler == nil {
		return
	}
	if err := n.scheduler.Cancel(jobID); err != nil {
		n.logger.Warn().Err(err).Uint64("cron_job_id", jobID).Msg("scheduler cancel failed")
	}
}
