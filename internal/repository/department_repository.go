package repository

import (
	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
)

// GormDepartmentRepository is a GORM implementation of DepartmentRepository
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &GormDepartmentRepository{db: db}
}

func (r *GormDepartmentRepository) Create(dep *models.Department) error {
	return r.db.Create(dep).Error
}

func (r *GormDepartmentRepository) List() ([]models.Department, error) {
	var deps []models.Department
	if err := r.db.Order("code ASC").Find(&deps).Error; err != nil {
		return nil, err
	}
	return deps, nil
}

// Delete soft deletes a department
func (r *GormDepartmentRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.Department{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LatestCode returns the code of the newest non-deleted department
func (r *GormDepartmentRepository) LatestCode() (string, error) {
	return latestCode(r.db, &models.Department{})
}
