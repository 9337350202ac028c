package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
)

// ErrStaleCronJob is returned by AdvanceRun when the job was advanced by
// someone else since it was read.
var ErrStaleCronJob = errors.New("cron job repository: job state changed concurrently")

// CronJobRepository defines the interface for recurring job data access
type CronJobRepository interface {
	// Create creates a new cron job
	Create(job *models.CronJob) error

	// FindByID finds a non-deleted cron job by ID
	FindByID(id uint64) (*models.CronJob, error)

	// List retrieves cron jobs with filtering and pagination
	List(filter CronJobFilter) ([]models.CronJob, int64, error)

	// ListActive returns every active, non-deleted cron job
	ListActive() ([]models.CronJob, error)

	// Update saves the definition fields of a cron job
	Update(job *models.CronJob) error

	// Delete soft deletes a cron job and deactivates it
	Delete(id uint64) error

	// AdvanceRun records a successful run if the stored version still matches
	AdvanceRun(id, expectedVersion uint64, lastRun, nextRun time.Time) error

	// LatestCode returns the code of the newest non-deleted cron job
	LatestCode() (string, error)
}

// CodeSequenceRepository serializes code allocation per prefix
type CodeSequenceRepository interface {
	// Lock blocks concurrent allocations for prefix until the transaction ends
	Lock(prefix string) error
}

// CronJobFilter holds filtering options for listing cron jobs
type CronJobFilter struct {
	ClientID   *uint64
	ActiveOnly bool
	Page       int
	PageSize   int
}

// PresetProjectRepository defines the interface for template data access
type PresetProjectRepository interface {
	// Create creates a template and its task rows
	Create(preset *models.PresetProject) error

	// FindByID finds a template by ID and loads its tasks
	FindByID(id uint64) (*models.PresetProject, error)

	// ExistsByName reports whether a non-deleted template uses the name
	ExistsByName(name string) (bool, error)

	// List retrieves templates without their tasks
	List(page, pageSize int) ([]models.PresetProject, int64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// CountByCronJob counts projects materialized from a cron job
	CountByCronJob(cronJobID uint64) (int64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateBatch inserts tasks in a single statement
	CreateBatch(tasks []models.Task) error

	// ListByProject lists the tasks of a project in order
	ListByProject(projectID uint64) ([]models.Task, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(client *models.Client) error
	FindByID(id uint64) (*models.Client, error)
	List(page, pageSize int) ([]models.Client, int64, error)
}

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	Create(dep *models.Department) error
	List() ([]models.Department, error)
	Delete(id uint64) error

	// LatestCode returns the code of the newest non-deleted department
	LatestCode() (string, error)
}

// SettingRepository defines the interface for the singleton settings row
type SettingRepository interface {
	// GetOrCreate returns the settings row, inserting defaults if missing
	GetOrCreate(defaults models.Setting) (*models.Setting, error)

	// Update saves the settings row
	Update(setting *models.Setting) error
}

// ActivityRepository defines the interface for activity log data access
type ActivityRepository interface {
	Create(entry *models.ActivityLog) error
	ListByEntity(entityType string, entityID uint64) ([]models.ActivityLog, error)
}
