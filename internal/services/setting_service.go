package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/repository"
)

// DefaultSetting is inserted the first time settings are read.
var DefaultSetting = models.Setting{
	CompanyName:          "",
	Timezone:             "UTC",
	DefaultProjectStatus: models.ProjectStatusPlanning,
}

// SettingService exposes the singleton settings row.
type SettingService struct {
	store      repository.Store
	onTimezone func(*time.Location)
}

// NewSettingService creates a new SettingService.
func NewSettingService(store repository.Store) *SettingService {
	return &SettingService{store: store}
}

// OnTimezoneChange registers fn to run after an update changes the
// timezone. The running scheduler uses it to follow the new zone.
func (s *SettingService) OnTimezoneChange(fn func(*time.Location)) {
	s.onTimezone = fn
}

// GetOrCreateDefault returns the settings row, creating it on first use.
func (s *SettingService) GetOrCreateDefault(ctx context.Context) (*models.Setting, error) {
	setting, err := s.store.Repositories(ctx).Settings.GetOrCreate(DefaultSetting)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return setting, nil
}

// UpdateSettingInput holds the settings fields to change.
type UpdateSettingInput struct {
	CompanyName          *string
	Timezone             *string
	DefaultProjectStatus *models.ProjectStatus
}

// Update applies input to the settings row.
func (s *SettingService) Update(ctx context.Context, input UpdateSettingInput) (*models.Setting, error) {
	var loc *time.Location
	if input.Timezone != nil {
		var err error
		if loc, err = time.LoadLocation(strings.TrimSpace(*input.Timezone)); err != nil {
			return nil, &ValidationError{Field: "timezone", Err: err}
		}
	}
	if input.DefaultProjectStatus != nil && !input.DefaultProjectStatus.Valid() {
		return nil, invalid("default_project_status", fmt.Sprintf("unknown project status %q", *input.DefaultProjectStatus))
	}

	var setting *models.Setting
	var previousTimezone string
	err := s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		var err error
		setting, err = repos.Settings.GetOrCreate(DefaultSetting)
		if err != nil {
			return err
		}
		previousTimezone = setting.Timezone

		if input.CompanyName != nil {
			setting.CompanyName = strings.TrimSpace(*input.CompanyName)
		}
		if input.Timezone != nil {
			setting.Timezone = strings.TrimSpace(*input.Timezone)
		}
		if input.DefaultProjectStatus != nil {
			setting.DefaultProjectStatus = *input.DefaultProjectStatus
		}

		return repos.Settings.Update(setting)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	if loc != nil && setting.Timezone != previousTimezone && s.onTimezone != nil {
		s.onTimezone(loc)
	}
	return setting, nil
}

// Location returns the configured business timezone.
func (s *SettingService) Location(ctx context.Context) (*time.Location, error) {
	setting, err := s.GetOrCreateDefault(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(setting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid configured timezone %q: %w", setting.Timezone, err)
	}
	return loc, nil
}
