package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/template"
	"gorm.io/gorm"
)

// MaterializationEngine turns recurrence definitions and preset templates
// into concrete projects and tasks. Each entry point writes its entity graph
// in a single transaction.
type MaterializationEngine struct {
	store repository.Store
	notifier
	locks *keyedMutex
}

// NewMaterializationEngine creates a new MaterializationEngine.
func NewMaterializationEngine(store repository.Store, recorder ActivityRecorder, logger zerolog.Logger) *MaterializationEngine {
	return &MaterializationEngine{
		store:    store,
		notifier: notifier{recorder: recorder, logger: logger},
		locks:    newKeyedMutex(),
	}
}

// RecurrenceResult is the outcome of a successful recurrence execution.
type RecurrenceResult struct {
	Project models.Project
	Job     models.CronJob
}

// MaterializeFromRecurrence creates the project for the job's pending
// occurrence and advances the job's run bookkeeping.
//
// Calls for the same job are serialized in-process; across processes the
// versioned write on the job row lets exactly one attempt commit and the
// others observe recurrence.ErrDuplicateInitialExecution.
func (e *MaterializationEngine) MaterializeFromRecurrence(ctx context.Context, jobID uint64, now time.Time) (*RecurrenceResult, error) {
	unlock := e.locks.Lock(jobID)
	defer unlock()

	var result RecurrenceResult
	err := e.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		job, err := repos.CronJobs.FindByID(jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCronJobNotFound
			}
			return fmt.Errorf("failed to load cron job: %w", err)
		}

		if err := recurrence.Check(job.GuardState(), now); err != nil {
			return err
		}

		occurrenceStart := job.NextRun
		dueDate, err := recurrence.DueDateFor(occurrenceStart, job.Frequency)
		if err != nil {
			return &ValidationError{Field: "frequency", Err: err}
		}

		clientID := job.ClientID
		cronJobID := job.ID
		project := &models.Project{
			Name:      recurrenceProjectName(job.Section, occurrenceStart),
			ClientID:  &clientID,
			Levels:    []template.Level{},
			Status:    models.ProjectStatusPlanning,
			StartDate: &occurrenceStart,
			DueDate:   &dueDate,
			CreatorID: job.CreatorID,
			CronJobID: &cronJobID,
		}
		if err := repos.Projects.Create(project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		lastRun := now
		nextRun, err := recurrence.NextOccurrence(lastRun, job.Frequency)
		if err != nil {
			return &ValidationError{Field: "frequency", Err: err}
		}
		if err := repos.CronJobs.AdvanceRun(job.ID, job.Version, lastRun, nextRun); err != nil {
			if errors.Is(err, repository.ErrStaleCronJob) {
				return recurrence.ErrDuplicateInitialExecution
			}
			return fmt.Errorf("failed to advance cron job: %w", err)
		}

		job.LastRun = &lastRun
		job.NextRun = nextRun
		job.Version++

		result = RecurrenceResult{Project: *project, Job: *job}
		return nil
	})
	if err != nil {
		return nil, classify(err, fmt.Sprintf("project for cron job %d", jobID))
	}

	e.record(ctx, ActivityEvent{
		Action:     ActionCronJobExecuted,
		EntityType: "cron_job",
		EntityID:   jobID,
		ActorID:    result.Job.CreatorID,
		Details: map[string]any{
			"project_id": result.Project.ID,
			"next_run":   result.Job.NextRun,
		},
	})

	return &result, nil
}

// ProjectOverrides are caller supplied project fields for a template
// application. Zero values fall back to the template's defaults.
type ProjectOverrides struct {
	Name      string
	ClientID  *uint64
	Status    models.ProjectStatus
	StartDate *time.Time
	DueDate   *time.Time
	CreatorID *uint64
}

// MaterializeFromTemplate creates one project from preset and one pending
// task per blueprint. Any failure, including a blueprint that references an
// unknown level or assignee, rolls back the project as well.
func (e *MaterializationEngine) MaterializeFromTemplate(ctx context.Context, preset *models.PresetProject, overrides ProjectOverrides, blueprints []template.TaskBlueprint) (uint64, error) {
	levels, err := template.Renormalize(preset.Levels)
	if err != nil {
		return 0, &ValidationError{Field: "levels", Err: err}
	}

	status := overrides.Status
	if status == "" {
		status = models.ProjectStatusPlanning
	}
	if !status.Valid() {
		return 0, invalid("status", fmt.Sprintf("unknown project status %q", status))
	}

	name := strings.TrimSpace(overrides.Name)
	if name == "" {
		name = preset.Name
	}

	var projectID uint64
	err = e.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		if overrides.ClientID != nil {
			if _, err := repos.Clients.FindByID(*overrides.ClientID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrClientNotFound
				}
				return fmt.Errorf("failed to load client: %w", err)
			}
		}

		presetID := preset.ID
		project := &models.Project{
			Name:            name,
			ClientID:        overrides.ClientID,
			Levels:          levels,
			Status:          status,
			StartDate:       overrides.StartDate,
			DueDate:         overrides.DueDate,
			CreatorID:       overrides.CreatorID,
			PresetProjectID: &presetID,
		}
		if err := repos.Projects.Create(project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		tasks := make([]models.Task, 0, len(blueprints))
		for i, bp := range blueprints {
			task, err := buildTask(repos, levels, project.ID, i, bp)
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}

		if err := repos.Tasks.CreateBatch(tasks); err != nil {
			return fmt.Errorf("failed to create tasks: %w", err)
		}

		projectID = project.ID
		return nil
	})
	if err != nil {
		return 0, &TransactionError{Graph: fmt.Sprintf("project from preset %d", preset.ID), Err: err}
	}

	e.record(ctx, ActivityEvent{
		Action:     ActionPresetApplied,
		EntityType: "preset_project",
		EntityID:   preset.ID,
		ActorID:    overrides.CreatorID,
		Details: map[string]any{
			"project_id": projectID,
			"task_count": len(blueprints),
		},
	})

	return projectID, nil
}

func buildTask(repos repository.Repositories, levels []template.Level, projectID uint64, i int, bp template.TaskBlueprint) (models.Task, error) {
	if err := template.ValidateBlueprint(levels, i, bp); err != nil {
		return models.Task{}, &ValidationError{Field: fmt.Sprintf("tasks[%d]", i), Err: err}
	}

	if bp.AssigneeID != nil {
		if _, err := repos.Users.FindByID(*bp.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Task{}, fmt.Errorf("tasks[%d] assignee %d: %w", i, *bp.AssigneeID, ErrUserNotFound)
			}
			return models.Task{}, fmt.Errorf("failed to load assignee: %w", err)
		}
	}

	level, _ := template.FindLevel(levels, bp.LevelIndex)
	department := strings.TrimSpace(bp.Department)
	if department == "" {
		department = level.Department
	}

	priority := bp.Priority
	if priority == "" {
		priority = template.PriorityMedium
	}

	tags := bp.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.Task{
		Title:           strings.TrimSpace(bp.Title),
		Description:     bp.Description,
		Priority:        priority,
		LevelIndex:      bp.LevelIndex,
		Department:      department,
		AssigneeID:      bp.AssigneeID,
		DueDate:         bp.DueDate,
		Amount:          bp.Amount,
		Tags:            tags,
		SortOrder:       bp.Order,
		ProjectID:       projectID,
		Status:          models.TaskStatusPending,
		IsPresetPending: true,
	}, nil
}

func recurrenceProjectName(section string, occurrence time.Time) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(section), occurrence.Format("2006-01-02"))
}

// classify passes typed domain errors through and wraps anything else as a
// transaction failure of graph.
func classify(err error, graph string) error {
	switch {
	case errors.Is(err, recurrence.ErrStateConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation):
		return err
	default:
		return &TransactionError{Graph: graph, Err: err}
	}
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint64]*refMutex)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key uint64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
