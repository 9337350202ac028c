package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"gorm.io/gorm"
)

// ClientService provides the client records recurring jobs belong to.
type ClientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService creates a new ClientService.
func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// CreateClient creates a client.
func (s *ClientService) CreateClient(name, email string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	client := &models.Client{Name: name, Email: strings.TrimSpace(email)}
	if err := s.clientRepo.Create(client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// GetClient returns a client by ID.
func (s *ClientService) GetClient(id uint64) (*models.Client, error) {
	client, err := s.clientRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

// ListClients lists clients page by page.
func (s *ClientService) ListClients(page, pageSize int) ([]models.Client, int64, error) {
	clients, total, err := s.clientRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}
