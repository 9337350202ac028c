package database

import (
	"fmt"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// indexes beyond the single-column ones declared in model tags
var indexes = []index{
	// Scheduler start-up scan
	{"cron_jobs", "idx_cron_jobs_active_next_run", "is_active, next_run"},

	// Project lookups by origin
	{"projects", "idx_projects_client_status", "client_id, status"},

	// Task listing per project
	{"tasks", "idx_tasks_project_level_order", "project_id, level_index, sort_order"},
	{"tasks", "idx_tasks_preset_pending", "is_preset_pending"},

	// Activity feed per entity
	{"activity_logs", "idx_activity_logs_entity", "entity_type, entity_id"},
}

// AddIndexes adds missing composite indexes and returns the names of the
// ones it created.
func AddIndexes(db *gorm.DB) ([]string, error) {
	var created []string
	for _, idx := range indexes {
		exists, err := indexExists(db, idx)
		if err != nil {
			return created, fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if exists {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return created, fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		created = append(created, idx.name)
	}

	return created, nil
}

func indexExists(db *gorm.DB, idx index) (bool, error) {
	var count int64
	var err error

	switch db.Dialector.Name() {
	case "postgres":
		err = db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
	case "mysql":
		err = db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
		`, idx.table, idx.name).Scan(&count).Error
	default:
		err = db.Raw(`
			SELECT COUNT(*)
			FROM sqlite_master
			WHERE type = 'index' AND tbl_name = ? AND name = ?
		`, idx.table, idx.name).Scan(&count).Error
	}

	return count > 0, err
}

// MigrateDatabase runs the migrations AutoMigrate cannot express
func MigrateDatabase(db *gorm.DB) ([]string, error) {
	created, err := AddIndexes(db)
	if err != nil {
		return created, fmt.Errorf("failed to add indexes: %w", err)
	}

	return created, nil
}
