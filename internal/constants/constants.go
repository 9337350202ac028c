package constants

// Session and context keys
const (
	SessionCookieName = "opsdesk_session"
	ContextKeyUserID  = "user_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Code generators
const (
	DepartmentCodePrefix = "DEP"
	CronJobCodePrefix    = "JOB"
	CodeDigits           = 3
)

// AI
const (
	MaxAIGeneratedTasks = 50
)
