package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/tradein"
)

const tradeInColumns = `trade_in_id, buyer_id, seller_id, old_product_id, new_product_id, price_difference,
	payment_status, note, status, created_at, updated_at, completed_at`

// TradeInRepository implements tradein.Repository.
type TradeInRepository struct {
	q querier
}

func (r *TradeInRepository) Create(ctx context.Context, t *tradein.TradeIn) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO trade_ins (`+tradeInColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, t.ID, t.BuyerID, t.SellerID, t.OldProductID, t.NewProductID, t.PriceDifference,
		t.PaymentStatus, t.Note, t.Status, t.CreatedAt, t.UpdatedAt, t.CompletedAt)
	return translate(err)
}

func (r *TradeInRepository) Update(ctx context.Context, t *tradein.TradeIn) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE trade_ins
		SET status=$1, payment_status=$2, updated_at=$3, completed_at=$4
		WHERE trade_in_id=$5
	`, t.Status, t.PaymentStatus, t.UpdatedAt, t.CompletedAt, t.ID)
	return affected(tag.RowsAffected(), err)
}

func (r *TradeInRepository) GetByID(ctx context.Context, tradeInID uuid.UUID) (*tradein.TradeIn, error) {
	return scanTradeIn(r.q.QueryRow(ctx, `SELECT `+tradeInColumns+` FROM trade_ins WHERE trade_in_id=$1`, tradeInID))
}

func (r *TradeInRepository) GetForUpdate(ctx context.Context, tradeInID uuid.UUID) (*tradein.TradeIn, error) {
	return scanTradeIn(r.q.QueryRow(ctx, `SELECT `+tradeInColumns+` FROM trade_ins WHERE trade_in_id=$1 FOR UPDATE`, tradeInID))
}

func (r *TradeInRepository) List(ctx context.Context, filter tradein.Filter, limit, offset int) ([]*tradein.TradeIn, error) {
	query := `SELECT ` + tradeInColumns + ` FROM trade_ins`
	args := []any{}
	idx := 1
	if filter.ParticipantID != nil {
		query += addWhere(query) + " (buyer_id=$" + itoa(idx) + " OR seller_id=$" + itoa(idx) + ")"
		args = append(args, *filter.ParticipantID)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTradeIn)
}

func (r *TradeInRepository) HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trade_ins
			WHERE status IN ('pending', 'accepted')
			AND LEAST(old_product_id, new_product_id) = LEAST($1::uuid, $2::uuid)
			AND GREATEST(old_product_id, new_product_id) = GREATEST($1::uuid, $2::uuid)
		)
	`, a, b).Scan(&found)
	return found, err
}

func scanTradeIn(row pgx.Row) (*tradein.TradeIn, error) {
	var t tradein.TradeIn
	if err := row.Scan(&t.ID, &t.BuyerID, &t.SellerID, &t.OldProductID, &t.NewProductID, &t.PriceDifference,
		&t.PaymentStatus, &t.Note, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
