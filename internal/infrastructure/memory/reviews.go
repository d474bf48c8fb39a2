package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/review"
)

// ReviewRepository implements review.Repository.
type ReviewRepository struct {
	v view
}

func copyReview(r *review.Review) *review.Review {
	c := *r
	c.PurchaseID = clonePtr(r.PurchaseID)
	c.BarterID = clonePtr(r.BarterID)
	c.TradeInID = clonePtr(r.TradeInID)
	return &c
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return r.v.write(func(st *state) error {
		ref := rv.Ref()
		for _, existing := range st.reviews {
			if existing.ReviewerID == rv.ReviewerID && existing.Ref() == ref {
				return ErrDuplicate
			}
		}
		st.reviews[rv.ID] = copyReview(rv)
		return nil
	})
}

func (r *ReviewRepository) Exists(ctx context.Context, reviewerID uuid.UUID, ref review.Ref) (bool, error) {
	var found bool
	err := r.v.read(func(st *state) error {
		for _, existing := range st.reviews {
			if existing.ReviewerID == reviewerID && existing.Ref() == ref {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*review.Review, error) {
	var out []*review.Review
	err := r.v.read(func(st *state) error {
		for _, rv := range st.reviews {
			if rv.RevieweeID == revieweeID {
				out = append(out, copyReview(rv))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(rv *review.Review) time.Time { return rv.CreatedAt })
	return paginate(out, limit, offset), nil
}
