package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/dto"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/services"
	"github.com/yukikurage/opsdesk-api/internal/utils"
)

type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	type CreateClientRequest struct {
		Name  string `json:"name" binding:"required,max=255"`
		Email string `json:"email" binding:"omitempty,email"`
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clients.CreateClient(req.Name, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	clients, total, err := h.clients.ListClients(params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients":    clients,
		"pagination": dto.NewPagination(params.Page, params.Limit, total),
	})
}
