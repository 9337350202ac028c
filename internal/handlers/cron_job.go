package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/dto"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/services"
	"github.com/yukikurage/opsdesk-api/internal/utils"
)

// CronJobHandler exposes recurrence definitions and their manual trigger.
type CronJobHandler struct {
	recurrences *services.RecurrenceService
	now         func() time.Time
}

// NewCronJobHandler creates a new CronJobHandler.
func NewCronJobHandler(recurrences *services.RecurrenceService) *CronJobHandler {
	return &CronJobHandler{
		recurrences: recurrences,
		now:         time.Now,
	}
}

// CreateCronJob defines a new recurring job.
func (h *CronJobHandler) CreateCronJob(c *gin.Context) {
	type CreateCronJobRequest struct {
		ClientID  uint64 `json:"client_id" binding:"required"`
		Section   string `json:"section" binding:"required"`
		Frequency string `json:"frequency" binding:"required"`
		StartDate string `json:"start_date" binding:"required"`
		IsActive  *bool  `json:"is_active"`
	}

	var req CreateCronJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.recurrences.Define(c.Request.Context(), services.DefineRecurrenceInput{
		ClientID:  req.ClientID,
		Section:   req.Section,
		Frequency: req.Frequency,
		StartDate: req.StartDate,
		IsActive:  req.IsActive,
		CreatorID: actorID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCronJobDTO(*job))
}

// ListCronJobs lists cron jobs, optionally by client or active state.
func (h *CronJobHandler) ListCronJobs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.CronJobFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("client_id"); raw != "" {
		clientID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid active")
			return
		}
		filter.ActiveOnly = active
	}

	jobs, total, err := h.recurrences.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCronJobListResponse(jobs, params.Page, params.Limit, total))
}

// GetCronJob returns one cron job.
func (h *CronJobHandler) GetCronJob(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.recurrences.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCronJobDTO(*job))
}

// UpdateCronJob patches a cron job's definition.
func (h *CronJobHandler) UpdateCronJob(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateCronJobRequest struct {
		ClientID  *uint64 `json:"client_id"`
		Section   *string `json:"section"`
		Frequency *string `json:"frequency"`
		StartDate *string `json:"start_date"`
		NextRun   *string `json:"next_run"`
		IsActive  *bool   `json:"is_active"`
	}

	var req UpdateCronJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	job, err := h.recurrences.Update(c.Request.Context(), id, services.UpdateRecurrenceInput{
		ClientID:  req.ClientID,
		Section:   req.Section,
		Frequency: req.Frequency,
		StartDate: req.StartDate,
		NextRun:   req.NextRun,
		IsActive:  req.IsActive,
		ActorID:   actorID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCronJobDTO(*job))
}

// DeleteCronJob deactivates and soft deletes a cron job.
func (h *CronJobHandler) DeleteCronJob(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recurrences.Deactivate(c.Request.Context(), id, actorID(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExecuteCronJob is the manual trigger: it materializes the job's pending
// occurrence now.
func (h *CronJobHandler) ExecuteCronJob(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.recurrences.Execute(c.Request.Context(), id, h.now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ExecuteResultDTO{
		Project: dto.ToProjectDTO(result.Project),
		CronJob: dto.ToCronJobDTO(result.Job),
	})
}
