package models

import "time"

// CodeSequence has one row per code prefix (DEP, JOB). Allocating a code
// locks the row so concurrent allocations are serialized.
type CodeSequence struct {
	Prefix    string `gorm:"primaryKey;type:varchar(10)"`
	UpdatedAt time.Time
}
