package dto

import (
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/template"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// TaskDTO represents a materialized task in API responses
type TaskDTO struct {
	ID              uint64            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Priority        template.Priority `json:"priority"`
	LevelIndex      int               `json:"level_index"`
	Department      string            `json:"department"`
	AssigneeID      *uint64           `json:"assignee_id"`
	DueDate         *time.Time        `json:"due_date"`
	Amount          float64           `json:"amount"`
	Tags            []string          `json:"tags"`
	Order           int               `json:"order"`
	ProjectID       uint64            `json:"project_id"`
	Status          models.TaskStatus `json:"status"`
	IsPresetPending bool              `json:"is_preset_pending"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ProjectDTO represents a materialized project in API responses
type ProjectDTO struct {
	ID              uint64               `json:"id"`
	Name            string               `json:"name"`
	ClientID        *uint64              `json:"client_id"`
	Levels          []template.Level     `json:"levels"`
	Status          models.ProjectStatus `json:"status"`
	StartDate       *time.Time           `json:"start_date"`
	DueDate         *time.Time           `json:"due_date"`
	CreatorID       *uint64              `json:"creator_id"`
	CronJobID       *uint64              `json:"cron_job_id,omitempty"`
	PresetProjectID *uint64              `json:"preset_project_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ProjectDetailDTO is a project together with its tasks
type ProjectDetailDTO struct {
	ProjectDTO
	Tasks []TaskDTO `json:"tasks"`
}

// Pagination is the paging metadata of list responses
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the page count for totalCount items
func NewPagination(page, pageSize int, totalCount int64) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	return TaskDTO{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		Priority:        task.Priority,
		LevelIndex:      task.LevelIndex,
		Department:      task.Department,
		AssigneeID:      task.AssigneeID,
		DueDate:         task.DueDate,
		Amount:          task.Amount,
		Tags:            tags,
		Order:           task.SortOrder,
		ProjectID:       task.ProjectID,
		Status:          task.Status,
		IsPresetPending: task.IsPresetPending,
		CreatedAt:       task.CreatedAt,
	}
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	levels := project.Levels
	if levels == nil {
		levels = []template.Level{}
	}

	return ProjectDTO{
		ID:              project.ID,
		Name:            project.Name,
		ClientID:        project.ClientID,
		Levels:          levels,
		Status:          project.Status,
		StartDate:       project.StartDate,
		DueDate:         project.DueDate,
		CreatorID:       project.CreatorID,
		CronJobID:       project.CronJobID,
		PresetProjectID: project.PresetProjectID,
		CreatedAt:       project.CreatedAt,
	}
}

// ToProjectDetailDTO converts a project and its tasks
func ToProjectDetailDTO(project models.Project, tasks []models.Task) ProjectDetailDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Tasks:      items,
	}
}
