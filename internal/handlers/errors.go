package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/opsdesk-api/internal/errors"
	"github.com/yukikurage/opsdesk-api/internal/middleware"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/services"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	var rejection *recurrence.Rejection
	var validation *services.ValidationError
	var txErr *services.TransactionError

	switch {
	case errors.As(err, &rejection):
		apierrors.StateConflict(c, rejection.Reason, err.Error())
	case errors.Is(err, services.ErrTemplateNameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.As(err, &validation):
		details := gin.H{"field": validation.Field}
		if errors.As(err, &txErr) {
			details["rolled_back"] = txErr.Graph
		}
		apierrors.BadRequestWithDetails(c, validation.Error(), details)
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.As(err, &txErr):
		apierrors.TransactionFailed(c, "", gin.H{"graph": txErr.Graph})
	case errors.Is(err, services.ErrAIUnavailable):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// actorID returns the authenticated user, if any, as an optional reference.
func actorID(c *gin.Context) *uint64 {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil
	}
	return &userID
}
