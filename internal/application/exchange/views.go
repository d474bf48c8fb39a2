package exchange

import (
	"context"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// PurchaseView is a purchase joined with its product and both parties.
type PurchaseView struct {
	*purchase.Purchase
	Product *product.Product `json:"product"`
	Buyer   *user.Party      `json:"buyer"`
	Seller  *user.Party      `json:"seller"`
}

// BarterView is a barter joined with both products and both parties.
type BarterView struct {
	*barter.Barter
	RequesterProduct *product.Product `json:"requester_product"`
	ReceiverProduct  *product.Product `json:"receiver_product"`
	Requester        *user.Party      `json:"requester"`
	Receiver         *user.Party      `json:"receiver"`
}

// TradeInView is a trade-in joined with both products and both parties.
type TradeInView struct {
	*tradein.TradeIn
	OldProduct *product.Product `json:"old_product"`
	NewProduct *product.Product `json:"new_product"`
	Buyer      *user.Party      `json:"buyer"`
	Seller     *user.Party      `json:"seller"`
}

// joiner memoises lookups while building a page of views.
type joiner struct {
	repos    Repositories
	products map[uuid.UUID]*product.Product
	parties  map[uuid.UUID]*user.Party
}

func (s *Service) joiner() *joiner {
	return &joiner{
		repos:    s.repos,
		products: map[uuid.UUID]*product.Product{},
		parties:  map[uuid.UUID]*user.Party{},
	}
}

func (j *joiner) product(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	if p, ok := j.products[id]; ok {
		return p, nil
	}
	p, err := j.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	j.products[id] = p
	return p, nil
}

func (j *joiner) party(ctx context.Context, id uuid.UUID) (*user.Party, error) {
	if p, ok := j.parties[id]; ok {
		return p, nil
	}
	u, err := j.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var party *user.Party
	if u != nil {
		p := u.Party()
		party = &p
	}
	j.parties[id] = party
	return party, nil
}

func (j *joiner) purchase(ctx context.Context, pu *purchase.Purchase) (*PurchaseView, error) {
	v := &PurchaseView{Purchase: pu}
	var err error
	if v.Product, err = j.product(ctx, pu.ProductID); err != nil {
		return nil, err
	}
	if v.Buyer, err = j.party(ctx, pu.BuyerID); err != nil {
		return nil, err
	}
	if v.Seller, err = j.party(ctx, pu.SellerID); err != nil {
		return nil, err
	}
	return v, nil
}

func (j *joiner) barter(ctx context.Context, b *barter.Barter) (*BarterView, error) {
	v := &BarterView{Barter: b}
	var err error
	if v.RequesterProduct, err = j.product(ctx, b.RequesterProductID); err != nil {
		return nil, err
	}
	if v.ReceiverProduct, err = j.product(ctx, b.ReceiverProductID); err != nil {
		return nil, err
	}
	if v.Requester, err = j.party(ctx, b.RequesterID); err != nil {
		return nil, err
	}
	if v.Receiver, err = j.party(ctx, b.ReceiverID); err != nil {
		return nil, err
	}
	return v, nil
}

func (j *joiner) tradeIn(ctx context.Context, t *tradein.TradeIn) (*TradeInView, error) {
	v := &TradeInView{TradeIn: t}
	var err error
	if v.OldProduct, err = j.product(ctx, t.OldProductID); err != nil {
		return nil, err
	}
	if v.NewProduct, err = j.product(ctx, t.NewProductID); err != nil {
		return nil, err
	}
	if v.Buyer, err = j.party(ctx, t.BuyerID); err != nil {
		return nil, err
	}
	if v.Seller, err = j.party(ctx, t.SellerID); err != nil {
		return nil, err
	}
	return v, nil
}
