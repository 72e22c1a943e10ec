package service

import (
	"github.com/google/uuid"

	"github.com/khatapro/khata-backend/internal/domain"
)

// CustomerService exposes customer credit standing to the API surface.
// Customers are created implicitly by the transaction ledger, never through
// this service.
type CustomerService struct {
	custRepo domain.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(custRepo domain.CustomerRepository) *CustomerService {
	return &CustomerService{custRepo: custRepo}
}

// GetByID retrieves a customer, enforcing outlet scoping
func (s *CustomerService) GetByID(actor *domain.User, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.custRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, customer.OutletID); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetByPhone retrieves a customer by phone within an outlet
func (s *CustomerService) GetByPhone(actor *domain.User, outletID uuid.UUID, phone string) (*domain.Customer, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.custRepo.GetByPhone(outletID, phone)
}
