package repository

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
)

// GormCronJobRepository is a GORM implementation of CronJobRepository
type GormCronJobRepository struct {
	db *gorm.DB
}

// NewCronJobRepository creates a new CronJobRepository
func NewCronJobRepository(db *gorm.DB) CronJobRepository {
	return &GormCronJobRepository{db: db}
}

// Create creates a new cron job
func (r *GormCronJobRepository) Create(job *models.CronJob) error {
	return r.db.Create(job).Error
}

// FindByID finds a non-deleted cron job by ID
func (r *GormCronJobRepository) FindByID(id uint64) (*models.CronJob, error) {
	var job models.CronJob
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List retrieves cron jobs with filtering and pagination
func (r *GormCronJobRepository) List(filter CronJobFilter) ([]models.CronJob, int64, error) {
	var jobs []models.CronJob

	query := r.db.Model(&models.CronJob{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("next_run ASC").Order("id ASC").Scopes(paginate(filter.Page, filter.PageSize))
	if err := listQuery.Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// ListActive returns every active, non-deleted cron job
func (r *GormCronJobRepository) ListActive() ([]models.CronJob, error) {
	var jobs []models.CronJob
	if err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update saves the definition fields of a cron job. Run bookkeeping columns
// are owned by AdvanceRun and never written here.
func (r *GormCronJobRepository) Update(job *models.CronJob) error {
	return r.db.Model(job).
		Select("section", "frequency", "is_active", "client_id").
		Updates(job).Error
}

// Delete soft deletes a cron job and deactivates it
func (r *GormCronJobRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CronJob{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CronJob{}, id).Error
	})
}

// AdvanceRun records a successful run. The write only lands if the stored
// version still equals expectedVersion; otherwise ErrStaleCronJob.
func (r *GormCronJobRepository) AdvanceRun(id, expectedVersion uint64, lastRun, nextRun time.Time) error {
	result := r.db.Model(&models.CronJob{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"last_run": lastRun,
			"next_run": nextRun,
			"version":  expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleCronJob
	}
	return nil
}

// LatestCode returns the code of the newest non-deleted cron job, or "" if
// there is none.
func (r *GormCronJobRepository) LatestCode() (string, error) {
	return latestCode(r.db, &models.CronJob{})
}

func latestCode(db *gorm.DB, model interface{}) (string, error) {
	var codes []string
	if err := db.Model(model).Order("id DESC").Limit(1).Pluck("code", &codes).Error; err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", nil
	}
	return codes[0], nil
}
