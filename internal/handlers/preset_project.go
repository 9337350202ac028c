package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/dto"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/services"
	"github.com/yukikurage/opsdesk-api/internal/template"
	"github.com/yukikurage/opsdesk-api/internal/utils"
)

// PresetProjectHandler exposes structural templates and their application.
type PresetProjectHandler struct {
	templates *services.TemplateService
	settings  *services.SettingService
}

// NewPresetProjectHandler creates a new PresetProjectHandler.
func NewPresetProjectHandler(templates *services.TemplateService, settings *services.SettingService) *PresetProjectHandler {
	return &PresetProjectHandler{
		templates: templates,
		settings:  settings,
	}
}

// CreatePresetProject defines a template.
func (h *PresetProjectHandler) CreatePresetProject(c *gin.Context) {
	type CreatePresetProjectRequest struct {
		Name     string                   `json:"name" binding:"required"`
		Levels   []template.RawLevel      `json:"levels" binding:"required"`
		Tasks    []template.TaskBlueprint `json:"tasks"`
		IsActive *bool                    `json:"is_active"`
	}

	var req CreatePresetProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	preset, err := h.templates.DefineTemplate(c.Request.Context(), services.DefineTemplateInput{
		Name:     req.Name,
		Levels:   req.Levels,
		Tasks:    req.Tasks,
		IsActive: req.IsActive,
		ActorID:  actorID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPresetProjectDTO(*preset))
}

// ListPresetProjects lists templates.
func (h *PresetProjectHandler) ListPresetProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	presets, total, err := h.templates.ListTemplates(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPresetProjectListResponse(presets, params.Page, params.Limit, total))
}

// GetPresetProject returns a template with its task blueprints.
func (h *PresetProjectHandler) GetPresetProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	preset, err := h.templates.GetTemplate(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPresetProjectDTO(*preset))
}

// ApplyPresetProject materializes a project and its tasks from a template.
// Omitting "tasks" applies the template's own blueprints.
func (h *PresetProjectHandler) ApplyPresetProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type ApplyPresetProjectRequest struct {
		Name      string                   `json:"name"`
		ClientID  *uint64                  `json:"client_id"`
		Status    models.ProjectStatus     `json:"status"`
		StartDate string                   `json:"start_date"`
		DueDate   string                   `json:"due_date"`
		Tasks     []template.TaskBlueprint `json:"tasks"`
	}

	var req ApplyPresetProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	loc, err := h.settings.Location(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	overrides := services.ProjectOverrides{
		Name:      req.Name,
		ClientID:  req.ClientID,
		Status:    req.Status,
		CreatorID: actorID(c),
	}
	if overrides.StartDate, ok = parseOptionalDate(c, "start_date", req.StartDate, loc); !ok {
		return
	}
	if overrides.DueDate, ok = parseOptionalDate(c, "due_date", req.DueDate, loc); !ok {
		return
	}

	projectID, err := h.templates.ApplyTemplate(c.Request.Context(), id, overrides, req.Tasks)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project_id": projectID})
}

// DraftTasks proposes task blueprints for levels from free text using the
// configured language model. Nothing is stored.
func (h *PresetProjectHandler) DraftTasks(c *gin.Context) {
	type DraftTasksRequest struct {
		Text   string              `json:"text" binding:"required"`
		Levels []template.RawLevel `json:"levels" binding:"required"`
	}

	var req DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	blueprints, err := h.templates.DraftBlueprints(c.Request.Context(), req.Text, req.Levels)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": blueprints})
}

func parseOptionalDate(c *gin.Context, field, raw string, loc *time.Location) (*time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	t, err := utils.ParseDate(raw, loc)
	if err != nil {
		apierrors.BadRequestWithDetails(c, err.Error(), gin.H{"field": field})
		return nil, false
	}
	return &t, true
}
