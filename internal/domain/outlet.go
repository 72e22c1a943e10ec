package domain

import (
	"time"

	"github.com/google/uuid"
)

type Outlet struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type OutletRepository interface {
	GetByID(id uuid.UUID) (*Outlet, error)
	GetAll() ([]*Outlet, error)
}
