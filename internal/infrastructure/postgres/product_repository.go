package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/product"
)

const productColumns = `product_id, owner_id, name, description, price, verification_state, verification_note,
	verified_at, availability, held_by_kind, held_by_id, barter_enabled, barter_preferences,
	trade_in_enabled, trade_in_value, trade_in_preferences, created_at, updated_at`

// ProductRepository implements product.Repository and, inside a transaction,
// ledger.ProductLedger.
type ProductRepository struct {
	q querier
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	kind, id := holderColumns(p.HeldBy)
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, p.ID, p.OwnerID, p.Name, p.Description, p.Price, p.Verification, p.VerificationNote,
		p.VerifiedAt, p.Availability, kind, id, p.BarterEnabled, p.BarterPreferences,
		p.TradeInEnabled, p.TradeInValue, p.TradeInPreferences, p.CreatedAt, p.UpdatedAt)
	return translate(err)
}

func (r *ProductRepository) GetByID(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	return scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id=$1`, productID))
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *ProductRepository) GetForUpdate(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	return scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id=$1 FOR UPDATE`, productID))
}

func (r *ProductRepository) List(ctx context.Context, filter product.Filter, limit, offset int) ([]*product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	idx := 1
	if filter.OwnerID != nil {
		query += addWhere(query) + " owner_id=$" + itoa(idx)
		args = append(args, *filter.OwnerID)
		idx++
	}
	if filter.Verification != nil {
		query += addWhere(query) + " verification_state=$" + itoa(idx)
		args = append(args, *filter.Verification)
		idx++
	}
	if filter.Availability != nil {
		query += addWhere(query) + " availability=$" + itoa(idx)
		args = append(args, *filter.Availability)
		idx++
	}
	if filter.Search != nil && *filter.Search != "" {
		query += addWhere(query) + " (name ILIKE $" + itoa(idx) + " OR description ILIKE $" + itoa(idx) + ")"
		args = append(args, "%"+*filter.Search+"%")
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

// UpdateDetails writes owner-editable fields only.
func (r *ProductRepository) UpdateDetails(ctx context.Context, p *product.Product) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET name=$1, description=$2, price=$3, barter_enabled=$4, barter_preferences=$5,
			trade_in_enabled=$6, trade_in_value=$7, trade_in_preferences=$8, updated_at=$9
		WHERE product_id=$10
	`, p.Name, p.Description, p.Price, p.BarterEnabled, p.BarterPreferences,
		p.TradeInEnabled, p.TradeInValue, p.TradeInPreferences, p.UpdatedAt, p.ID)
	return affected(tag.RowsAffected(), err)
}

func (r *ProductRepository) UpdateVerification(ctx context.Context, p *product.Product) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET verification_state=$1, verification_note=$2, verified_at=$3, updated_at=$4
		WHERE product_id=$5
	`, p.Verification, p.VerificationNote, p.VerifiedAt, p.UpdatedAt, p.ID)
	return affected(tag.RowsAffected(), err)
}

func (r *ProductRepository) SetAvailability(ctx context.Context, productID uuid.UUID, availability product.Availability, holder *product.Holder) error {
	kind, id := holderColumns(holder)
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET availability=$1, held_by_kind=$2, held_by_id=$3, updated_at=now()
		WHERE product_id=$4
	`, availability, kind, id, productID)
	return affected(tag.RowsAffected(), err)
}

func (r *ProductRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE product_id=$1`, productID)
	return translateDelete(err)
}

// HasHistory reports whether any exchange references the product.
func (r *ProductRepository) HasHistory(ctx context.Context, productID uuid.UUID) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE product_id=$1)
			OR EXISTS (SELECT 1 FROM barters WHERE requester_product_id=$1 OR receiver_product_id=$1)
			OR EXISTS (SELECT 1 FROM trade_ins WHERE old_product_id=$1 OR new_product_id=$1)
	`, productID).Scan(&found)
	return found, err
}

func holderColumns(h *product.Holder) (*string, *uuid.UUID) {
	if h == nil {
		return nil, nil
	}
	kind, id := h.Kind, h.ID
	return &kind, &id
}

func affected(n int64, err error) error {
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return ErrMissing
	}
	return nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	var heldKind *string
	var heldID *uuid.UUID
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Price, &p.Verification, &p.VerificationNote,
		&p.VerifiedAt, &p.Availability, &heldKind, &heldID, &p.BarterEnabled, &p.BarterPreferences,
		&p.TradeInEnabled, &p.TradeInValue, &p.TradeInPreferences, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if heldKind != nil && heldID != nil {
		p.HeldBy = &product.Holder{Kind: *heldKind, ID: *heldID}
	}
	return &p, nil
}
