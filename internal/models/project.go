package models

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/template"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusOnHold:
		return true
	}
	return false
}

// Project is a materialized project. Levels are copied from the source
// template when the project is created and never re-resolved.
type Project struct {
	ID              uint64           `gorm:"primarykey" json:"id"`
	Name            string           `gorm:"type:varchar(255);not null" json:"name"`
	ClientID        *uint64          `gorm:"index" json:"client_id"`
	Levels          []template.Level `gorm:"type:text;serializer:json" json:"levels"`
	Status          ProjectStatus    `gorm:"type:varchar(20);not null" json:"status"`
	StartDate       *time.Time       `json:"start_date"`
	DueDate         *time.Time       `json:"due_date"`
	CreatorID       *uint64          `json:"creator_id"`
	CronJobID       *uint64          `gorm:"index" json:"cron_job_id,omitempty"`
	PresetProjectID *uint64          `gorm:"index" json:"preset_project_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}
