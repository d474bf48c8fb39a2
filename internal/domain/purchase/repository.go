package purchase

import (
	"context"

	"github.com/google/uuid"
)

// Filter controls purchase listing.
type Filter struct {
	ParticipantID *uuid.UUID
	Status        *Status
}

// Repository defines persistence for purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Update(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, purchaseID uuid.UUID) (*Purchase, error)
	GetForUpdate(ctx context.Context, purchaseID uuid.UUID) (*Purchase, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Purchase, error)
	HasActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}
