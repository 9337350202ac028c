package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/opsdesk-api/internal/middleware"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth           *AuthHandler
	Clients        *ClientHandler
	Departments    *DepartmentHandler
	Settings       *SettingHandler
	CronJobs       *CronJobHandler
	PresetProjects *PresetProjectHandler
	Projects       *ProjectHandler
}

// RegisterRoutes mounts the API under api. Everything except signup, login
// and logout requires a session.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth())

	clients := protected.Group("/clients")
	{
		clients.POST("", h.Clients.CreateClient)
		clients.GET("", h.Clients.ListClients)
	}

	departments := protected.Group("/departments")
	{
		departments.POST("", h.Departments.CreateDepartment)
		departments.GET("", h.Departments.ListDepartments)
		departments.DELETE("/:id", h.Departments.DeleteDepartment)
	}

	settings := protected.Group("/settings")
	{
		settings.GET("", h.Settings.GetSettings)
		settings.PUT("", h.Settings.UpdateSettings)
	}

	cronJobs := protected.Group("/cron-jobs")
	{
		cronJobs.POST("", h.CronJobs.CreateCronJob)
		cronJobs.GET("", h.CronJobs.ListCronJobs)
		cronJobs.GET("/:id", h.CronJobs.GetCronJob)
		cronJobs.PATCH("/:id", h.CronJobs.UpdateCronJob)
		cronJobs.DELETE("/:id", h.CronJobs.DeleteCronJob)
		cronJobs.POST("/:id/execute", h.CronJobs.ExecuteCronJob)
	}

	presets := protected.Group("/preset-projects")
	{
		presets.POST("", h.PresetProjects.CreatePresetProject)
		presets.GET("", h.PresetProjects.ListPresetProjects)
		presets.POST("/draft-tasks", h.PresetProjects.DraftTasks)
		presets.GET("/:id", h.PresetProjects.GetPresetProject)
		presets.POST("/:id/apply", h.PresetProjects.ApplyPresetProject)
	}

	protected.GET("/projects/:id", h.Projects.GetProject)
}
