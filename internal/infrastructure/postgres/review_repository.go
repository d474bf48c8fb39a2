package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/review"
)

const reviewColumns = `review_id, reviewer_id, reviewee_id, purchase_id, barter_id, trade_in_id, rating, comment, created_at`

// ReviewRepository implements review.Repository.
type ReviewRepository struct {
	q querier
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rv.ID, rv.ReviewerID, rv.RevieweeID, rv.PurchaseID, rv.BarterID, rv.TradeInID, rv.Rating, rv.Comment, rv.CreatedAt)
	return translate(err)
}

func (r *ReviewRepository) Exists(ctx context.Context, reviewerID uuid.UUID, ref review.Ref) (bool, error) {
	column := refColumn(ref.Kind)
	var found bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE reviewer_id=$1 AND `+column+`=$2)
	`, reviewerID, ref.ID).Scan(&found)
	return found, err
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*review.Review, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE reviewee_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, revieweeID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReview)
}

func refColumn(kind exchange.Kind) string {
	switch kind {
	case exchange.KindBarter:
		return "barter_id"
	case exchange.KindTradeIn:
		return "trade_in_id"
	default:
		return "purchase_id"
	}
}

func scanReview(row pgx.Row) (*review.Review, error) {
	var rv review.Review
	if err := row.Scan(&rv.ID, &rv.ReviewerID, &rv.RevieweeID, &rv.PurchaseID, &rv.BarterID, &rv.TradeInID,
		&rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}
