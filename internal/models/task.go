package models

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/template"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

type Task struct {
	ID              uint64            `gorm:"primarykey" json:"id"`
	Title           string            `gorm:"not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	Priority        template.Priority `gorm:"type:varchar(20);not null" json:"priority"`
	LevelIndex      int               `gorm:"not null" json:"level_index"`
	Department      string            `gorm:"type:varchar(255)" json:"department"`
	AssigneeID      *uint64           `gorm:"index" json:"assignee_id"`
	DueDate         *time.Time        `json:"due_date"`
	Amount          float64           `json:"amount"`
	Tags            []string          `gorm:"type:text;serializer:json" json:"tags"`
	SortOrder       int               `gorm:"not null" json:"order"`
	ProjectID       uint64            `gorm:"not null;index" json:"project_id"`
	Status          TaskStatus        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	IsPresetPending bool              `gorm:"not null" json:"is_preset_pending"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}
