package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/services"
)

type SettingHandler struct {
	settings *services.SettingService
}

func NewSettingHandler(settings *services.SettingService) *SettingHandler {
	return &SettingHandler{settings: settings}
}

// GetSettings returns the settings row, creating defaults on first read.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	setting, err := h.settings.GetOrCreateDefault(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, setting)
}

func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	type UpdateSettingsRequest struct {
		CompanyName          *string               `json:"company_name"`
		Timezone             *string               `json:"timezone"`
		DefaultProjectStatus *models.ProjectStatus `json:"default_project_status"`
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	setting, err := h.settings.Update(c.Request.Context(), services.UpdateSettingInput{
		CompanyName:          req.CompanyName,
		Timezone:             req.Timezone,
		DefaultProjectStatus: req.DefaultProjectStatus,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, setting)
}
