package models

import "time"

// Setting is the single application-wide configuration row.
type Setting struct {
	ID                   uint64        `gorm:"primarykey" json:"id"`
	CompanyName          string        `gorm:"type:varchar(255)" json:"company_name"`
	Timezone             string        `gorm:"type:varchar(64);not null" json:"timezone"`
	DefaultProjectStatus ProjectStatus `gorm:"type:varchar(20);not null" json:"default_project_status"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// SingletonSettingID is the primary key of the only Setting row.
const SingletonSettingID uint64 = 1
