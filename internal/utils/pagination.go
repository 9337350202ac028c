package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset is the number of rows preceding the requested page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// GetPaginationParams extracts and validates pagination parameters from the
// request. "page_size" is accepted as an alias of "limit".
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))

	rawLimit := c.Query("limit")
	if rawLimit == "" {
		rawLimit = c.DefaultQuery("page_size", strconv.Itoa(constants.DefaultPageSize))
	}
	limit, _ := strconv.Atoi(rawLimit)

	return ClampPagination(page, limit)
}

// ClampPagination applies the page bounds shared by the HTTP layer and the
// repositories.
func ClampPagination(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	return PaginationParams{Page: page, Limit: limit}
}
