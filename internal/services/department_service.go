package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/opsdesk-api/internal/constants"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/utils"
	"gorm.io/gorm"
)

// DepartmentService manages departments and their sequential codes.
type DepartmentService struct {
	store repository.Store
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(store repository.Store) *DepartmentService {
	return &DepartmentService{store: store}
}

// CreateDepartment creates a department with the next free DEPnnn code.
func (s *DepartmentService) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	var dep *models.Department
	err := s.store.RunAtomic(ctx, func(repos repository.Repositories) error {
		if err := repos.Codes.Lock(constants.DepartmentCodePrefix); err != nil {
			return fmt.Errorf("failed to lock department codes: %w", err)
		}
		latest, err := repos.Departments.LatestCode()
		if err != nil {
			return err
		}
		code, err := utils.NextCode(constants.DepartmentCodePrefix, latest, constants.CodeDigits)
		if err != nil {
			return err
		}

		dep = &models.Department{Code: code, Name: name}
		return repos.Departments.Create(dep)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	return dep, nil
}

// ListDepartments lists non-deleted departments.
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	deps, err := s.store.Repositories(ctx).Departments.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return deps, nil
}

// DeleteDepartment soft deletes a department.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uint64) error {
	if err := s.store.Repositories(ctx).Departments.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return nil
}
