package models

import (
	"time"

	"gorm.io/gorm"
)

// Department codes are not unique at the database level: a soft-deleted
// department keeps its code and the generator may hand it out again.
type Department struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Code      string         `gorm:"type:varchar(20);index;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
