package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a credit counterpart of an outlet. OutstandingBalance is the
// receivable owed by the customer: raised by Credit-tender income, lowered by
// credit_received entries.
type Customer struct {
	ID                 uuid.UUID       `json:"id"`
	OutletID           uuid.UUID       `json:"outletId"`
	Phone              string          `json:"phone"`
	Name               string          `json:"name"`
	ReferredBy         *string         `json:"referredBy,omitempty"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type CustomerRepository interface {
	GetByID(id uuid.UUID) (*Customer, error)
	GetByPhone(outletID uuid.UUID, phone string) (*Customer, error)
	Create(customer *Customer) (*Customer, error)
}

// CustomerResolver is the capability the transaction ledger uses to attach a
// counterpart to an entry. Lookups are by phone within an outlet; unknown
// phones create the customer on the fly.
type CustomerResolver interface {
	ResolveOrCreate(outletID uuid.UUID, phone, name string) (*Customer, error)
}
