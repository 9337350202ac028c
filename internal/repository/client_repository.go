package repository

import (
	"github.com/yukikurage/opsdesk-api/internal/models"
	"gorm.io/gorm"
)

// GormClientRepository is a GORM implementation of ClientRepository
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

func (r *GormClientRepository) FindByID(id uint64) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *GormClientRepository) List(page, pageSize int) ([]models.Client, int64, error) {
	var clients []models.Client

	query := r.db.Model(&models.Client{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Scopes(paginate(page, pageSize)).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}
