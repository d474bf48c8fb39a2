package barter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter controls barter listing.
type Filter struct {
	ParticipantID *uuid.UUID
	Status        *Status
}

// Repository defines persistence for barters.
type Repository interface {
	Create(ctx context.Context, b *Barter) error
	Update(ctx context.Context, b *Barter) error
	GetByID(ctx context.Context, barterID uuid.UUID) (*Barter, error)
	GetForUpdate(ctx context.Context, barterID uuid.UUID) (*Barter, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Barter, error)
	// HasActiveForPair treats (a, b) and (b, a) as the same pair.
	HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error)
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
