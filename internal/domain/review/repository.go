package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	Exists(ctx context.Context, reviewerID uuid.UUID, ref Ref) (bool, error)
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*Review, error)
}
