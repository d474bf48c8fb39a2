package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
)

// PurchaseRepository implements purchase.Repository.
type PurchaseRepository struct {
	v view
}

func copyPurchase(p *purchase.Purchase) *purchase.Purchase {
	c := *p
	c.CompletedAt = clonePtr(p.CompletedAt)
	return &c
}

func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.purchases[p.ID]; ok {
			return ErrDuplicate
		}
		st.purchases[p.ID] = copyPurchase(p)
		return nil
	})
}

func (r *PurchaseRepository) Update(ctx context.Context, p *purchase.Purchase) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.purchases[p.ID]; !ok {
			return ErrMissing
		}
		st.purchases[p.ID] = copyPurchase(p)
		return nil
	})
}

func (r *PurchaseRepository) GetByID(ctx context.Context, purchaseID uuid.UUID) (*purchase.Purchase, error) {
	var out *purchase.Purchase
	err := r.v.read(func(st *state) error {
		if p, ok := st.purchases[purchaseID]; ok {
			out = copyPurchase(p)
		}
		return nil
	})
	return out, err
}

func (r *PurchaseRepository) GetForUpdate(ctx context.Context, purchaseID uuid.UUID) (*purchase.Purchase, error) {
	return r.GetByID(ctx, purchaseID)
}

func (r *PurchaseRepository) List(ctx context.Context, filter purchase.Filter, limit, offset int) ([]*purchase.Purchase, error) {
	var out []*purchase.Purchase
	err := r.v.read(func(st *state) error {
		for _, p := range st.purchases {
			if filter.ParticipantID != nil && !p.IsParty(*filter.ParticipantID) {
				continue
			}
			if filter.Status != nil && p.Status != *filter.Status {
				continue
			}
			out = append(out, copyPurchase(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(p *purchase.Purchase) time.Time { return p.CreatedAt })
	return paginate(out, limit, offset), nil
}

func (r *PurchaseRepository) HasActiveForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var found bool
	err := r.v.read(func(st *state) error {
		for _, p := range st.purchases {
			if p.ProductID == productID && p.IsActive() {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// BarterRepository implements barter.Repository.
type BarterRepository struct {
	v view
}

func copyBarter(b *barter.Barter) *barter.Barter {
	c := *b
	c.CompletedAt = clonePtr(b.CompletedAt)
	return &c
}

func (r *BarterRepository) Create(ctx context.Context, b *barter.Barter) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.barters[b.ID]; ok {
			return ErrDuplicate
		}
		st.barters[b.ID] = copyBarter(b)
		return nil
	})
}

func (r *BarterRepository) Update(ctx context.Context, b *barter.Barter) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.barters[b.ID]; !ok {
			return ErrMissing
		}
		st.barters[b.ID] = copyBarter(b)
		return nil
	})
}

func (r *BarterRepository) GetByID(ctx context.Context, barterID uuid.UUID) (*barter.Barter, error) {
	var out *barter.Barter
	err := r.v.read(func(st *state) error {
		if b, ok := st.barters[barterID]; ok {
			out = copyBarter(b)
		}
		return nil
	})
	return out, err
}

func (r *BarterRepository) GetForUpdate(ctx context.Context, barterID uuid.UUID) (*barter.Barter, error) {
	return r.GetByID(ctx, barterID)
}

func (r *BarterRepository) List(ctx context.Context, filter barter.Filter, limit, offset int) ([]*barter.Barter, error) {
	var out []*barter.Barter
	err := r.v.read(func(st *state) error {
		for _, b := range st.barters {
			if filter.ParticipantID != nil && !b.IsParty(*filter.ParticipantID) {
				continue
			}
			if filter.Status != nil && b.Status != *filter.Status {
				continue
			}
			out = append(out, copyBarter(b))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(b *barter.Barter) time.Time { return b.CreatedAt })
	return paginate(out, limit, offset), nil
}

func (r *BarterRepository) HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var found bool
	err := r.v.read(func(st *state) error {
		for _, x := range st.barters {
			if x.IsActive() && samePair(x.RequesterProductID, x.ReceiverProductID, a, b) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *BarterRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.v.write(func(st *state) error {
		for id, b := range st.barters {
			if b.Status == barter.StatusRejected && b.UpdatedAt.Before(cutoff) {
				delete(st.barters, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// TradeInRepository implements tradein.Repository.
type TradeInRepository struct {
	v view
}

func copyTradeIn(t *tradein.TradeIn) *tradein.TradeIn {
	c := *t
	c.CompletedAt = clonePtr(t.CompletedAt)
	return &c
}

func (r *TradeInRepository) Create(ctx context.Context, t *tradein.TradeIn) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.tradeIns[t.ID]; ok {
			return ErrDuplicate
		}
		st.tradeIns[t.ID] = copyTradeIn(t)
		return nil
	})
}

func (r *TradeInRepository) Update(ctx context.Context, t *tradein.TradeIn) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.tradeIns[t.ID]; !ok {
			return ErrMissing
		}
		st.tradeIns[t.ID] = copyTradeIn(t)
		return nil
	})
}

func (r *TradeInRepository) GetByID(ctx context.Context, tradeInID uuid.UUID) (*tradein.TradeIn, error) {
	var out *tradein.TradeIn
	err := r.v.read(func(st *state) error {
		if t, ok := st.tradeIns[tradeInID]; ok {
			out = copyTradeIn(t)
		}
		return nil
	})
	return out, err
}

func (r *TradeInRepository) GetForUpdate(ctx context.Context, tradeInID uuid.UUID) (*tradein.TradeIn, error) {
	return r.GetByID(ctx, tradeInID)
}

func (r *TradeInRepository) List(ctx context.Context, filter tradein.Filter, limit, offset int) ([]*tradein.TradeIn, error) {
	var out []*tradein.TradeIn
	err := r.v.read(func(st *state) error {
		for _, t := range st.tradeIns {
			if filter.ParticipantID != nil && !t.IsParty(*filter.ParticipantID) {
				continue
			}
			if filter.Status != nil && t.Status != *filter.Status {
				continue
			}
			out = append(out, copyTradeIn(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(t *tradein.TradeIn) time.Time { return t.CreatedAt })
	return paginate(out, limit, offset), nil
}

func (r *TradeInRepository) HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var found bool
	err := r.v.read(func(st *state) error {
		for _, t := range st.tradeIns {
			if t.IsActive() && samePair(t.OldProductID, t.NewProductID, a, b) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}
