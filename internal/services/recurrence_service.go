package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/constants"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/utils"
	"gorm.io/gorm"
)

// RecurrenceService defines, updates, deactivates and executes cron jobs.
type RecurrenceService struct {
	store    repository.Store
	engine   *MaterializationEngine
	settings *SettingService
	notifier
}

// NewRecurrenceService creates a new RecurrenceService. scheduler may be
// attached later with SetScheduler.
func NewRecurrenceService(store repository.Store, engine *MaterializationEngine, settings *SettingService, recorder ActivityRecorder, logger zerolog.Logger) *RecurrenceService {
	return &RecurrenceService{
		store:    store,
		engine:   engine,
		settings: settings,
		notifier: notifier{recorder: recorder, logger: logger},
	}
}

// SetScheduler attaches the trigger that is notified of job changes.
func (s *RecurrenceService) SetScheduler(scheduler Scheduler) {
	s.scheduler = scheduler
}

// DefineRecurrenceInput holds the fields of a new cron job. StartDate is
// either YYYY-MM-DD in the configured timezone or RFC3339.
type DefineRecurrenceInput struct {
	ClientID  uint64
	Section   string
	Frequency string
	StartDate string
	IsActive  *bool
	CreatorID *uint64
}

// Define validates input and creates a cron job whose first occurrence is
// its start date.
func (s *RecurrenceService) Define(ctx context.Context, input DefineRecurrenceInput) (*models.CronJob, error) {
	if input.ClientID == 0 {
		return nil, invalid("client_id", "is required")
	}
	section := strings.TrimSpace(input.Section)
	if section == "" {
		return nil, invalid("section", "is required")
	}
	frequency, err := recurrence.ParseFrequency(input.Frequency)
	if err != nil {
		return nil, &ValidationError{Field: "frequency", Err: err}
	}
	startDate, err := s.parseDate(ctx, "start_date", input.StartDate)
	if err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var job *models.CronJob
	err = s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Clients.FindByID(input.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClientNotFound
			}
			return fmt.Errorf("failed to load client: %w", err)
		}

		if err := repos.Codes.Lock(constants.CronJobCodePrefix); err != nil {
			return fmt.Errorf("failed to lock job codes: %w", err)
		}
		latest, err := repos.CronJobs.LatestCode()
		if err != nil {
			return fmt.Errorf("failed to read latest job code: %w", err)
		}
		code, err := utils.NextCode(constants.CronJobCodePrefix, latest, constants.CodeDigits)
		if err != nil {
			return err
		}

		job = &models.CronJob{
			Code:      code,
			ClientID:  input.ClientID,
			Section:   section,
			Frequency: frequency,
			StartDate: startDate,
			NextRun:   startDate,
			IsActive:  active,
			CreatorID: input.CreatorID,
		}
		return repos.CronJobs.Create(job)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to define cron job: %w", err)
	}

	s.schedule(*job)
	s.record(ctx, ActivityEvent{
		Action:     ActionCronJobDefined,
		EntityType: "cron_job",
		EntityID:   job.ID,
		ActorID:    job.CreatorID,
		Details:    map[string]any{"code": job.Code, "frequency": string(job.Frequency)},
	})

	return job, nil
}

// UpdateRecurrenceInput is a partial update of a cron job. StartDate and
// NextRun are only present so that attempts to change them can be rejected:
// the start date is immutable and the run bookkeeping belongs to the engine.
type UpdateRecurrenceInput struct {
	ClientID  *uint64
	Section   *string
	Frequency *string
	StartDate *string
	NextRun   *string
	IsActive  *bool
	ActorID   *uint64
}

// Update applies patch to the job and reschedules it.
func (s *RecurrenceService) Update(ctx context.Context, id uint64, patch UpdateRecurrenceInput) (*models.CronJob, error) {
	if patch.StartDate != nil {
		return nil, invalid("start_date", "is immutable")
	}
	if patch.NextRun != nil {
		return nil, invalid("next_run", "is managed by the engine")
	}
	if patch.Section != nil && strings.TrimSpace(*patch.Section) == "" {
		return nil, invalid("section", "must not be empty")
	}

	var frequency recurrence.Frequency
	if patch.Frequency != nil {
		f, err := recurrence.ParseFrequency(*patch.Frequency)
		if err != nil {
			return nil, &ValidationError{Field: "frequency", Err: err}
		}
		frequency = f
	}

	var job *models.CronJob
	err := s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		var err error
		job, err = repos.CronJobs.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCronJobNotFound
			}
			return fmt.Errorf("failed to load cron job: %w", err)
		}

		if patch.ClientID != nil {
			if _, err := repos.Clients.FindByID(*patch.ClientID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrClientNotFound
				}
				return fmt.Errorf("failed to load client: %w", err)
			}
			job.ClientID = *patch.ClientID
		}
		if patch.Section != nil {
			job.Section = strings.TrimSpace(*patch.Section)
		}
		if frequency != "" {
			job.Frequency = frequency
		}
		if patch.IsActive != nil {
			job.IsActive = *patch.IsActive
		}

		return repos.CronJobs.Update(job)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cron job: %w", err)
	}

	s.reschedule(*job)
	s.record(ctx, ActivityEvent{
		Action:     ActionCronJobUpdated,
		EntityType: "cron_job",
		EntityID:   job.ID,
		ActorID:    patch.ActorID,
	})

	return job, nil
}

// Deactivate soft deletes the job and cancels its trigger.
func (s *RecurrenceService) Deactivate(ctx context.Context, id uint64, actorID *uint64) error {
	err := s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		if _, err := repos.CronJobs.FindByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCronJobNotFound
			}
			return fmt.Errorf("failed to load cron job: %w", err)
		}
		return repos.CronJobs.Delete(id)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to deactivate cron job: %w", err)
	}

	s.cancel(id)
	s.record(ctx, ActivityEvent{
		Action:     ActionCronJobDeactivated,
		EntityType: "cron_job",
		EntityID:   id,
		ActorID:    actorID,
	})

	return nil
}

// Execute materializes the job's pending occurrence at now.
func (s *RecurrenceService) Execute(ctx context.Context, id uint64, now time.Time) (*RecurrenceResult, error) {
	return s.engine.MaterializeFromRecurrence(ctx, id, now)
}

// Get returns a non-deleted job.
func (s *RecurrenceService) Get(ctx context.Context, id uint64) (*models.CronJob, error) {
	job, err := s.store.Repositories(ctx).CronJobs.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCronJobNotFound
		}
		return nil, fmt.Errorf("failed to find cron job: %w", err)
	}
	return job, nil
}

// List returns non-deleted jobs matching filter.
func (s *RecurrenceService) List(ctx context.Context, filter repository.CronJobFilter) ([]models.CronJob, int64, error) {
	jobs, total, err := s.store.Repositories(ctx).CronJobs.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cron jobs: %w", err)
	}
	return jobs, total, nil
}

// ScheduleActive hands every active job to the scheduler. It is called once
// at startup.
func (s *RecurrenceService) ScheduleActive(ctx context.Context) (int, error) {
	jobs, err := s.store.Repositories(ctx).CronJobs.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list active cron jobs: %w", err)
	}
	for _, job := range jobs {
		s.schedule(job)
	}
	return len(jobs), nil
}

func (s *RecurrenceService) parseDate(ctx context.Context, field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, invalid(field, "is required")
	}
	loc := time.UTC
	if s.settings != nil {
		l, err := s.settings.Location(ctx)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	t, err := utils.ParseDate(raw, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Err: err}
	}
	return t, nil
}
