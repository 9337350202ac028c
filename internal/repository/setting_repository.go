package repository

import (
	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingRepository is a GORM implementation of SettingRepository
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new SettingRepository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &GormSettingRepository{db: db}
}

// GetOrCreate returns the settings row, inserting defaults if missing.
// Concurrent first reads race on the fixed primary key; the loser's insert
// is ignored and both read the same row.
func (r *GormSettingRepository) GetOrCreate(defaults models.Setting) (*models.Setting, error) {
	defaults.ID = models.SingletonSettingID

	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, err
	}

	var setting models.Setting
	if err := r.db.First(&setting, models.SingletonSettingID).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// Update saves the settings row
func (r *GormSettingRepository) Update(setting *models.Setting) error {
	setting.ID = models.SingletonSettingID
	return r.db.Save(setting).Error
}
