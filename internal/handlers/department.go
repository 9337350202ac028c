package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/services"
)

type DepartmentHandler struct {
	departments *services.DepartmentService
}

func NewDepartmentHandler(departments *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// CreateDepartment creates a department with the next DEP code.
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	type CreateDepartmentRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	dep, err := h.departments.CreateDepartment(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dep)
}

func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	deps, err := h.departments.ListDepartments(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": deps})
}

func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.departments.DeleteDepartment(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
