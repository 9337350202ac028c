package models

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"gorm.io/gorm"
)

// CronJob is a recurrence definition that materializes a project for a
// client. LastRun, NextRun and Version are written only by the
// materialization engine.
type CronJob struct {
	ID        uint64               `gorm:"primarykey" json:"id"`
	Code      string               `gorm:"type:varchar(20);index;not null" json:"code"`
	ClientID  uint64               `gorm:"not null;index" json:"client_id"`
	Section   string               `gorm:"type:varchar(255);not null" json:"section"`
	Frequency recurrence.Frequency `gorm:"type:varchar(20);not null" json:"frequency"`
	StartDate time.Time            `gorm:"not null" json:"start_date"`
	NextRun   time.Time            `gorm:"not null;index" json:"next_run"`
	LastRun   *time.Time           `json:"last_run"`
	IsActive  bool                 `gorm:"not null" json:"is_active"`
	Version   uint64               `gorm:"not null" json:"-"`
	CreatorID *uint64              `json:"creator_id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"-"`
}

// GuardState projects the fields the execution guard decides on.
func (j CronJob) GuardState() recurrence.GuardState {
	return recurrence.GuardState{
		IsActive:  j.IsActive,
		StartDate: j.StartDate,
		LastRun:   j.LastRun,
	}
}
