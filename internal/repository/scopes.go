package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/opsdesk-api/internal/utils"
)

// paginate limits a list query to one page. A non-positive page or page size
// returns every row.
func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		params := utils.PaginationParams{Page: page, Limit: pageSize}
		return db.Offset(params.Offset()).Limit(params.Limit)
	}
}
