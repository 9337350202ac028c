package dto

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
)

// CronJobDTO represents a recurrence definition in API responses
type CronJobDTO struct {
	ID        uint64               `json:"id"`
	Code      string               `json:"code"`
	ClientID  uint64               `json:"client_id"`
	Section   string               `json:"section"`
	Frequency recurrence.Frequency `json:"frequency"`
	StartDate time.Time            `json:"start_date"`
	NextRun   time.Time            `json:"next_run"`
	LastRun   *time.Time           `json:"last_run"`
	IsActive  bool                 `json:"is_active"`
	CreatorID *uint64              `json:"creator_id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CronJobListResponse represents a paginated list of cron jobs
type CronJobListResponse struct {
	CronJobs []CronJobDTO `json:"cron_jobs"`
	Pagination
}

// ExecuteResultDTO is the outcome of executing a cron job
type ExecuteResultDTO struct {
	Project ProjectDTO `json:"project"`
	CronJob CronJobDTO `json:"cron_job"`
}

// ToCronJobDTO converts a CronJob model to CronJobDTO
func ToCronJobDTO(job models.CronJob) CronJobDTO {
	return CronJobDTO{
		ID:        job.ID,
		Code:      job.Code,
		ClientID:  job.ClientID,
		Section:   job.Section,
		Frequency: job.Frequency,
		StartDate: job.StartDate,
		NextRun:   job.NextRun,
		LastRun:   job.LastRun,
		IsActive:  job.IsActive,
		CreatorID: job.CreatorID,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// ToCronJobListResponse converts a page of cron jobs
func ToCronJobListResponse(jobs []models.CronJob, page, pageSize int, totalCount int64) CronJobListResponse {
	items := make([]CronJobDTO, len(jobs))
	for i, job := range jobs {
		items[i] = ToCronJobDTO(job)
	}

	return CronJobListResponse{
		CronJobs:   items,
		Pagination: NewPagination(page, pageSize, totalCount),
	}
}
