package service

import (
	"github.com/google/uuid"

	"github.com/khatapro/khata-backend/internal/domain"
)

// OutletService exposes the outlet registry. Outlets are provisioned
// directly in the database; the API only reads them.
type OutletService struct {
	outletRepo domain.OutletRepository
}

// NewOutletService creates a new OutletService
func NewOutletService(outletRepo domain.OutletRepository) *OutletService {
	return &OutletService{outletRepo: outletRepo}
}

// List retrieves the outlets visible to the actor: head-office roles see
// every outlet, outlet-bound roles only their own.
func (s *OutletService) List(actor *domain.User) ([]*domain.Outlet, error) {
	if actor.OutletID != nil {
		outlet, err := s.outletRepo.GetByID(*actor.OutletID)
		if err != nil {
			return nil, err
		}
		return []*domain.Outlet{outlet}, nil
	}
	return s.outletRepo.GetAll()
}

// GetByID retrieves an outlet, enforcing outlet scoping
func (s *OutletService) GetByID(actor *domain.User, id uuid.UUID) (*domain.Outlet, error) {
	if err := canAccessOutlet(actor, id); err != nil {
		return nil, err
	}
	return s.outletRepo.GetByID(id)
}
