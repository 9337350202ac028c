package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/dto"
	"github.com/yukikurage/opsdesk-api/internal/services"
)

type ProjectHandler struct {
	templates *services.TemplateService
}

func NewProjectHandler(templates *services.TemplateService) *ProjectHandler {
	return &ProjectHandler{templates: templates}
}

// GetProject returns a materialized project with its tasks.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	got, err := h.templates.GetProject(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(got.Project, got.Tasks))
}
