package tradein

import (
	"context"

	"github.com/google/uuid"
)

// Filter controls trade-in listing.
type Filter struct {
	ParticipantID *uuid.UUID
	Status        *Status
}

// Repository defines persistence for trade-ins.
type Repository interface {
	Create(ctx context.Context, t *TradeIn) error
	Update(ctx context.Context, t *TradeIn) error
	GetByID(ctx context.Context, tradeInID uuid.UUID) (*TradeIn, error)
	GetForUpdate(ctx context.Context, tradeInID uuid.UUID) (*TradeIn, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*TradeIn, error)
	// HasActiveForPair treats (a, b) and (b, a) as the same pair.
	HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error)
}
