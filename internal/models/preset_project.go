package models

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/template"
	"gorm.io/gorm"
)

// PresetProject is a reusable structural template. Its tasks are stored as
// PresetTask rows and loaded explicitly by the repository.
type PresetProject struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	Name      string           `gorm:"type:varchar(255);index;not null" json:"name"`
	Levels    []template.Level `gorm:"type:text;serializer:json" json:"levels"`
	IsActive  bool             `gorm:"not null" json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`

	Tasks []PresetTask `gorm:"-" json:"tasks,omitempty"`
}

type PresetTask struct {
	ID              uint64            `gorm:"primarykey" json:"id"`
	PresetProjectID uint64            `gorm:"not null;index" json:"preset_project_id"`
	Title           string            `gorm:"not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	Priority        template.Priority `gorm:"type:varchar(20);not null" json:"priority"`
	LevelIndex      int               `gorm:"not null" json:"level_index"`
	SortOrder       int               `gorm:"not null" json:"order"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Blueprint converts the stored task into its template form.
func (t PresetTask) Blueprint() template.TaskBlueprint {
	return template.TaskBlueprint{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		LevelIndex:  t.LevelIndex,
		Order:       t.SortOrder,
	}
}

// Blueprints returns the template's task blueprints in stored order.
func (p PresetProject) Blueprints() []template.TaskBlueprint {
	out := make([]template.TaskBlueprint, len(p.Tasks))
	for i, t := range p.Tasks {
		out[i] = t.Blueprint()
	}
	return out
}
