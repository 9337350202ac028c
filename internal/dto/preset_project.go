package dto

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/template"
)

// PresetTaskDTO represents a template task blueprint in API responses
type PresetTaskDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    template.Priority `json:"priority"`
	LevelIndex  int               `json:"level_index"`
	Order       int               `json:"order"`
}

// PresetProjectDTO represents a structural template in API responses
type PresetProjectDTO struct {
	ID        uint64           `json:"id"`
	Name      string           `json:"name"`
	Levels    []template.Level `json:"levels"`
	IsActive  bool             `json:"is_active"`
	Tasks     []PresetTaskDTO  `json:"tasks,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// PresetProjectListResponse represents a paginated list of templates
type PresetProjectListResponse struct {
	PresetProjects []PresetProjectDTO `json:"preset_projects"`
	Pagination
}

// ToPresetProjectDTO converts a PresetProject model, including loaded tasks
func ToPresetProjectDTO(preset models.PresetProject) PresetProjectDTO {
	dto := PresetProjectDTO{
		ID:        preset.ID,
		Name:      preset.Name,
		Levels:    preset.Levels,
		IsActive:  preset.IsActive,
		CreatedAt: preset.CreatedAt,
	}

	if len(preset.Tasks) > 0 {
		dto.Tasks = make([]PresetTaskDTO, len(preset.Tasks))
		for i, t := range preset.Tasks {
			dto.Tasks[i] = PresetTaskDTO{
				ID:          t.ID,
				Title:       t.Title,
				Description: t.Description,
				Priority:    t.Priority,
				LevelIndex:  t.LevelIndex,
				Order:       t.SortOrder,
			}
		}
	}

	return dto
}

// ToPresetProjectListResponse converts a page of templates
func ToPresetProjectListResponse(presets []models.PresetProject, page, pageSize int, totalCount int64) PresetProjectListResponse {
	items := make([]PresetProjectDTO, len(presets))
	for i, p := range presets {
		items[i] = ToPresetProjectDTO(p)
	}

	return PresetProjectListResponse{
		PresetProjects: items,
		Pagination:     NewPagination(page, pageSize, totalCount),
	}
}
