package repository

import (
	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
)

// GormPresetProjectRepository is a GORM implementation of PresetProjectRepository
type GormPresetProjectRepository struct {
	db *gorm.DB
}

// NewPresetProjectRepository creates a new PresetProjectRepository
func NewPresetProjectRepository(db *gorm.DB) PresetProjectRepository {
	return &GormPresetProjectRepository{db: db}
}

// Create creates a template and its task rows in a transaction
func (r *GormPresetProjectRepository) Create(preset *models.PresetProject) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(preset).Error; err != nil {
			return err
		}

		if len(preset.Tasks) == 0 {
			return nil
		}

		for i := range preset.Tasks {
			preset.Tasks[i].PresetProjectID = preset.ID
		}

		return tx.Create(&preset.Tasks).Error
	})
}

// FindByID finds a template by ID and loads its tasks
func (r *GormPresetProjectRepository) FindByID(id uint64) (*models.PresetProject, error) {
	var preset models.PresetProject
	if err := r.db.First(&preset, id).Error; err != nil {
		return nil, err
	}

	if err := r.db.Where("preset_project_id = ?", preset.ID).
		Order("sort_order ASC").Order("id ASC").
		Find(&preset.Tasks).Error; err != nil {
		return nil, err
	}

	return &preset, nil
}

// ExistsByName reports whether a non-deleted template uses the name
func (r *GormPresetProjectRepository) ExistsByName(name string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.PresetProject{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves templates without their tasks
func (r *GormPresetProjectRepository) List(page, pageSize int) ([]models.PresetProject, int64, error) {
	var presets []models.PresetProject

	query := r.db.Model(&models.PresetProject{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Scopes(paginate(page, pageSize)).Find(&presets).Error; err != nil {
		return nil, 0, err
	}

	return presets, total, nil
}
