package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/template"
	"gorm.io/gorm"
)

// ErrTemplateNameTaken is returned when a template name is already in use.
var ErrTemplateNameTaken = errors.New("preset project name already exists")

// TemplateService defines preset projects and applies them.
type TemplateService struct {
	store  repository.Store
	engine *MaterializationEngine
	ai     *AIService
	notifier
}

// NewTemplateService creates a new TemplateService. ai may be nil.
func NewTemplateService(store repository.Store, engine *MaterializationEngine, ai *AIService, recorder ActivityRecorder, logger zerolog.Logger) *TemplateService {
	return &TemplateService{
		store:    store,
		engine:   engine,
		ai:       ai,
		notifier: notifier{recorder: recorder, logger: logger},
	}
}

// DefineTemplateInput holds a new preset project in raw form.
type DefineTemplateInput struct {
	Name     string
	Levels   []template.RawLevel
	Tasks    []template.TaskBlueprint
	IsActive *bool
	ActorID  *uint64
}

// DefineTemplate normalizes input and stores it as a preset project.
func (s *TemplateService) DefineTemplate(ctx context.Context, input DefineTemplateInput) (*models.PresetProject, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	levels, err := template.Normalize(input.Levels)
	if err != nil {
		return nil, &ValidationError{Field: "levels", Err: err}
	}
	if err := template.ValidateBlueprints(levels, input.Tasks); err != nil {
		return nil, &ValidationError{Field: "tasks", Err: err}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	tasks := make([]models.PresetTask, len(input.Tasks))
	for i, bp := range input.Tasks {
		priority := bp.Priority
		if priority == "" {
			priority = template.PriorityMedium
		}
		tasks[i] = models.PresetTask{
			Title:       strings.TrimSpace(bp.Title),
			Description: bp.Description,
			Priority:    priority,
			LevelIndex:  bp.LevelIndex,
			SortOrder:   bp.Order,
		}
	}

	preset := &models.PresetProject{
		Name:     name,
		Levels:   levels,
		IsActive: active,
		Tasks:    tasks,
	}

	err = s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		taken, err := repos.Presets.ExistsByName(name)
		if err != nil {
			return fmt.Errorf("failed to check name: %w", err)
		}
		if taken {
			return ErrTemplateNameTaken
		}
		return repos.Presets.Create(preset)
	})
	if err != nil {
		if errors.Is(err, ErrTemplateNameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to define preset project: %w", err)
	}

	s.record(ctx, ActivityEvent{
		Action:     ActionPresetDefined,
		EntityType: "preset_project",
		EntityID:   preset.ID,
		ActorID:    input.ActorID,
		Details:    map[string]any{"levels": len(levels), "tasks": len(tasks)},
	})

	return preset, nil
}

// GetTemplate returns a preset project with its tasks.
func (s *TemplateService) GetTemplate(ctx context.Context, id uint64) (*models.PresetProject, error) {
	preset, err := s.store.Repositories(ctx).Presets.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetProjectNotFound
		}
		return nil, fmt.Errorf("failed to find preset project: %w", err)
	}
	return preset, nil
}

// ListTemplates lists preset projects without their tasks.
func (s *TemplateService) ListTemplates(ctx context.Context, page, pageSize int) ([]models.PresetProject, int64, error) {
	presets, total, err := s.store.Repositories(ctx).Presets.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list preset projects: %w", err)
	}
	return presets, total, nil
}

// ApplyTemplate materializes a project from the preset. A nil blueprints
// slice applies the preset's own tasks, and an empty status falls back to
// the configured default.
func (s *TemplateService) ApplyTemplate(ctx context.Context, presetID uint64, overrides ProjectOverrides, blueprints []template.TaskBlueprint) (uint64, error) {
	preset, err := s.GetTemplate(ctx, presetID)
	if err != nil {
		return 0, err
	}
	if !preset.IsActive {
		return 0, recurrence.ErrInactiveTemplate
	}

	if blueprints == nil {
		blueprints = preset.Blueprints()
	}

	if overrides.Status == "" {
		setting, err := s.store.Repositories(ctx).Settings.GetOrCreate(DefaultSetting)
		if err != nil {
			return 0, fmt.Errorf("failed to load settings: %w", err)
		}
		overrides.Status = setting.DefaultProjectStatus
	}

	return s.engine.MaterializeFromTemplate(ctx, preset, overrides, blueprints)
}

// ProjectWithTasks is a materialized project and its tasks.
type ProjectWithTasks struct {
	Project models.Project
	Tasks   []models.Task
}

// GetProject returns a project and its tasks.
func (s *TemplateService) GetProject(ctx context.Context, id uint64) (*ProjectWithTasks, error) {
	repos := s.store.Repositories(ctx)
	project, err := repos.Projects.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	tasks, err := repos.Tasks.ListByProject(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &ProjectWithTasks{Project: *project, Tasks: tasks}, nil
}

// DraftBlueprints proposes task blueprints for levels from free text.
func (s *TemplateService) DraftBlueprints(ctx context.Context, text string, rawLevels []template.RawLevel) ([]template.TaskBlueprint, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	levels, err := template.Normalize(rawLevels)
	if err != nil {
		return nil, &ValidationError{Field: "levels", Err: err}
	}
	return s.ai.DraftTaskBlueprints(ctx, text, levels)
}
