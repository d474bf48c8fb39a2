package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/product"
)

// ProductRepository implements product.Repository and ledger.ProductLedger.
type ProductRepository struct {
	v view
}

func copyProduct(p *product.Product) *product.Product {
	c := *p
	c.HeldBy = clonePtr(p.HeldBy)
	c.VerificationNote = clonePtr(p.VerificationNote)
	c.VerifiedAt = clonePtr(p.VerifiedAt)
	return &c
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return ErrDuplicate
		}
		st.products[p.ID] = copyProduct(p)
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	var out *product.Product
	err := r.v.read(func(st *state) error {
		if p, ok := st.products[productID]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock here: transactions already run one at a time.
func (r *ProductRepository) GetForUpdate(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

func (r *ProductRepository) List(ctx context.Context, filter product.Filter, limit, offset int) ([]*product.Product, error) {
	var out []*product.Product
	err := r.v.read(func(st *state) error {
		for _, p := range st.products {
			if matchesProduct(p, filter) {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(p *product.Product) time.Time { return p.CreatedAt })
	return paginate(out, limit, offset), nil
}

func matchesProduct(p *product.Product, f product.Filter) bool {
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.Verification != nil && p.Verification != *f.Verification {
		return false
	}
	if f.Availability != nil && p.Availability != *f.Availability {
		return false
	}
	if f.Search != nil && *f.Search != "" {
		q := strings.ToLower(*f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// UpdateDetails writes owner-editable fields only.
func (r *ProductRepository) UpdateDetails(ctx context.Context, p *product.Product) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return ErrMissing
		}
		next := copyProduct(cur)
		next.Name = p.Name
		next.Description = p.Description
		next.Price = p.Price
		next.BarterEnabled = p.BarterEnabled
		next.BarterPreferences = p.BarterPreferences
		next.TradeInEnabled = p.TradeInEnabled
		next.TradeInValue = p.TradeInValue
		next.TradeInPreferences = p.TradeInPreferences
		next.UpdatedAt = p.UpdatedAt
		st.products[p.ID] = next
		return nil
	})
}

func (r *ProductRepository) UpdateVerification(ctx context.Context, p *product.Product) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return ErrMissing
		}
		next := copyProduct(cur)
		next.Verification = p.Verification
		next.VerificationNote = clonePtr(p.VerificationNote)
		next.VerifiedAt = clonePtr(p.VerifiedAt)
		next.UpdatedAt = p.UpdatedAt
		st.products[p.ID] = next
		return nil
	})
}

func (r *ProductRepository) SetAvailability(ctx context.Context, productID uuid.UUID, availability product.Availability, holder *product.Holder) error {
	return r.v.write(func(st *state) error {
		cur, ok := st.products[productID]
		if !ok {
			return ErrMissing
		}
		next := copyProduct(cur)
		next.Availability = availability
		next.HeldBy = clonePtr(holder)
		next.UpdatedAt = time.Now().UTC()
		st.products[productID] = next
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, productID uuid.UUID) error {
	return r.v.write(func(st *state) error {
		delete(st.products, productID)
		return nil
	})
}

func (r *ProductRepository) HasHistory(ctx context.Context, productID uuid.UUID) (bool, error) {
	var found bool
	err := r.v.read(func(st *state) error {
		for _, pu := range st.purchases {
			if pu.ProductID == productID {
				found = true
				return nil
			}
		}
		for _, b := range st.barters {
			if b.RequesterProductID == productID || b.ReceiverProductID == productID {
				found = true
				return nil
			}
		}
		for _, t := range st.tradeIns {
			if t.OldProductID == productID || t.NewProductID == productID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}
