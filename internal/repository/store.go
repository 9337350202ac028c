package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repositories bundles every repository bound to the same database handle,
// which is either the root connection or an open transaction.
type Repositories struct {
	CronJobs    CronJobRepository
	Presets     PresetProjectRepository
	Projects    ProjectRepository
	Tasks       TaskRepository
	Users       UserRepository
	Clients     ClientRepository
	Departments DepartmentRepository
	Settings    SettingRepository
	Activities  ActivityRepository
	Codes       CodeSequenceRepository
}

// NewRepositories binds all repositories to db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		CronJobs:    NewCronJobRepository(db),
		Presets:     NewPresetProjectRepository(db),
		Projects:    NewProjectRepository(db),
		Tasks:       NewTaskRepository(db),
		Users:       NewUserRepository(db),
		Clients:     NewClientRepository(db),
		Departments: NewDepartmentRepository(db),
		Settings:    NewSettingRepository(db),
		Activities:  NewActivityRepository(db),
		Codes:       NewCodeSequenceRepository(db),
	}
}

// Store gives services plain and transactional access to the repositories.
type Store interface {
	// Repositories returns repositories bound to ctx outside any transaction
	Repositories(ctx context.Context) Repositories

	// RunAtomic runs fn in a transaction. Every write fn performed is rolled
	// back if fn returns an error or the commit fails.
	RunAtomic(ctx context.Context, fn func(repos Repositories) error) error
}

// GormStore is a GORM implementation of Store
type GormStore struct {
	db        *gorm.DB
	txTimeout time.Duration
}

// NewStore creates a new Store. A positive txTimeout bounds every
// RunAtomic call.
func NewStore(db *gorm.DB, txTimeout time.Duration) *GormStore {
	return &GormStore{db: db, txTimeout: txTimeout}
}

// Repositories returns repositories bound to ctx outside any transaction
func (s *GormStore) Repositories(ctx context.Context) Repositories {
	return NewRepositories(s.db.WithContext(ctx))
}

// RunAtomic runs fn in a transaction
func (s *GormStore) RunAtomic(ctx context.Context, fn func(repos Repositories) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
