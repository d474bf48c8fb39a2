package product

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Filter controls product listing.
type Filter struct {
	OwnerID      *uuid.UUID
	Verification *VerificationState
	Availability *Availability
	Search       *string
}

// Repository defines persistence for the product registry.
// Availability is deliberately absent: it is written only inside ledger transactions.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID uuid.UUID) (*Product, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Product, error)
	UpdateDetails(ctx context.Context, p *Product) error
	UpdateVerification(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID uuid.UUID) error
	HasHistory(ctx context.Context, productID uuid.UUID) (bool, error)
}
