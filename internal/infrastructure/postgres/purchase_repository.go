package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/purchase"
)

const purchaseColumns = `purchase_id, buyer_id, seller_id, product_id, amount, payment_reference, status,
	created_at, updated_at, completed_at`

// PurchaseRepository implements purchase.Repository.
type PurchaseRepository struct {
	q querier
}

func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, p.ID, p.BuyerID, p.SellerID, p.ProductID, p.Amount, p.PaymentReference, p.Status,
		p.CreatedAt, p.UpdatedAt, p.CompletedAt)
	return translate(err)
}

func (r *PurchaseRepository) Update(ctx context.Context, p *purchase.Purchase) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE purchases SET status=$1, updated_at=$2, completed_at=$3 WHERE purchase_id=$4
	`, p.Status, p.UpdatedAt, p.CompletedAt, p.ID)
	return affected(tag.RowsAffected(), err)
}

func (r *PurchaseRepository) GetByID(ctx context.Context, purchaseID uuid.UUID) (*purchase.Purchase, error) {
	return scanPurchase(r.q.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id=$1`, purchaseID))
}

func (r *PurchaseRepository) GetForUpdate(ctx context.Context, purchaseID uuid.UUID) (*purchase.Purchase, error) {
	return scanPurchase(r.q.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id=$1 FOR UPDATE`, purchaseID))
}

func (r *PurchaseRepository) List(ctx context.Context, filter purchase.Filter, limit, offset int) ([]*purchase.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
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
	return collect(rows, scanPurchase)
}

func (r *PurchaseRepository) HasActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE product_id=$1 AND status IN ('pending', 'escrow'))
	`, productID).Scan(&found)
	return found, err
}

func scanPurchase(row pgx.Row) (*purchase.Purchase, error) {
	var p purchase.Purchase
	if err := row.Scan(&p.ID, &p.BuyerID, &p.SellerID, &p.ProductID, &p.Amount, &p.PaymentReference, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
