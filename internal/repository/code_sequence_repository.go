package repository

import (
	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCodeSequenceRepository is a GORM implementation of CodeSequenceRepository
type GormCodeSequenceRepository struct {
	db *gorm.DB
}

// NewCodeSequenceRepository creates a new CodeSequenceRepository
func NewCodeSequenceRepository(db *gorm.DB) CodeSequenceRepository {
	return &GormCodeSequenceRepository{db: db}
}

// Lock takes a row lock on prefix until the surrounding transaction ends,
// creating the row on first use. SQLite has no row locks; its single writer
// already serializes transactions.
func (r *GormCodeSequenceRepository) Lock(prefix string) error {
	seq := models.CodeSequence{Prefix: prefix}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return err
	}
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&seq).Error
}
