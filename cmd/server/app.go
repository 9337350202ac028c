package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/opsdesk-api/internal/config"
	"github.com/yukikurage/opsdesk-api/internal/constants"
	"github.com/yukikurage/opsdesk-api/internal/database"
	"github.com/yukikurage/opsdesk-api/internal/handlers"
	"github.com/yukikurage/opsdesk-api/internal/logging"
	"github.com/yukikurage/opsdesk-api/internal/middleware"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/scheduler"
	"github.com/yukikurage/opsdesk-api/internal/services"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg         *config.Config
	log         zerolog.Logger
	settings    *services.SettingService
	recurrences *services.RecurrenceService
	templates   *services.TemplateService
	auth        *services.AuthService
	clients     *services.ClientService
	departments *services.DepartmentService
}

// bootstrap loads configuration, connects and migrates the database, and
// wires the services.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	if err := database.Connect(cfg, log); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.GetDB()
	store := repository.NewStore(db, cfg.DBTxTimeout)
	recorder := services.NewActivityRecorder(store)
	engine := services.NewMaterializationEngine(store, recorder, log)
	settings := services.NewSettingService(store)

	return &app{
		cfg:         cfg,
		log:         log,
		settings:    settings,
		recurrences: services.NewRecurrenceService(store, engine, settings, recorder, log),
		templates:   services.NewTemplateService(store, engine, services.NewAIService(cfg.OpenAIAPIKey), recorder, log),
		auth:        services.NewAuthService(repository.NewUserRepository(db)),
		clients:     services.NewClientService(repository.NewClientRepository(db)),
		departments: services.NewDepartmentService(store),
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.SchedulerOn {
		trigger, err := a.startScheduler(ctx)
		if err != nil {
			return err
		}
		defer trigger.Stop()
	}

	router, err := a.router()
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: a.cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.HTTPAddr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) startScheduler(ctx context.Context) (*scheduler.CronTrigger, error) {
	loc, err := a.settings.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	trigger := scheduler.NewCronTrigger(func(ctx context.Context, jobID uint64, now time.Time) error {
		_, err := a.recurrences.Execute(ctx, jobID, now)
		return err
	}, a.log.With().Str("component", "scheduler").Logger(), scheduler.WithLocation(loc))

	a.recurrences.SetScheduler(trigger)
	a.settings.OnTimezoneChange(trigger.SetLocation)
	n, err := a.recurrences.ScheduleActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule active cron jobs: %w", err)
	}
	trigger.Start()

	a.log.Info().Int("jobs", n).Str("timezone", loc.String()).Msg("scheduler started")
	return trigger, nil
}

func (a *app) router() (*gin.Engine, error) {
	gin.SetMode(a.cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(a.log))

	// Setup session middleware with Redis
	redisAddr := a.cfg.RedisHost + ":" + a.cfg.RedisPort
	store, err := redisStore.NewStore(10, "tcp", redisAddr, "", []byte(a.cfg.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   a.cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "OpsDesk API is running",
		})
	})

	handlers.RegisterRoutes(r.Group("/api"), handlers.Handlers{
		Auth:           handlers.NewAuthHandler(a.auth),
		Clients:        handlers.NewClientHandler(a.clients),
		Departments:    handlers.NewDepartmentHandler(a.departments),
		Settings:       handlers.NewSettingHandler(a.settings),
		CronJobs:       handlers.NewCronJobHandler(a.recurrences),
		PresetProjects: handlers.NewPresetProjectHandler(a.templates, a.settings),
		Projects:       handlers.NewProjectHandler(a.templates),
	})

	return r, nil
}
