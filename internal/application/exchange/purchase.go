package exchange

import (
	"context"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// CreatePurchase opens escrow on a product and marks it sold immediately.
func (s *Service) CreatePurchase(ctx context.Context, actor user.Actor, productID uuid.UUID) (*PurchaseView, error) {
	policy := domainExchange.PurchasePolicy
	var created *purchase.Purchase

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		products, err := lockProducts(ctx, tx.Products(), productID)
		if err != nil {
			return err
		}
		p := products[productID]
		if p.OwnerID == actor.UserID {
			return domainExchange.ErrSelfDealing
		}
		if err := checkClaimable(p); err != nil {
			return err
		}
		active, err := tx.Purchases().HasActiveForProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		if active {
			return domainExchange.ErrActiveExchangeExists
		}

		pu := purchase.New(actor.UserID, p, s.now())
		if err := tx.Purchases().Create(ctx, pu); err != nil {
			return err
		}
		if err := claimAtCreate(ctx, tx.Products(), policy, policy.Kind.Holder(pu.ID), p); err != nil {
			return err
		}
		created = pu
		return nil
	})

	t := transition{kind: policy.Kind, op: "create", action: audit.ActionCreate}
	if created != nil {
		t.id, t.to, t.counterparty = created.ID, string(created.Status), created.SellerID
	}
	s.observe(ctx, actor, t, err)
	if err != nil {
		return nil, err
	}
	return s.joiner().purchase(ctx, created)
}

// ConfirmPurchase releases escrow to the seller. The product is already sold.
func (s *Service) ConfirmPurchase(ctx context.Context, actor user.Actor, purchaseID uuid.UUID) (*PurchaseView, error) {
	policy := domainExchange.PurchasePolicy
	return s.mutatePurchase(ctx, actor, purchaseID, "confirm", audit.ActionComplete,
		func(ctx context.Context, tx ledger.Tx, pu *purchase.Purchase) error {
			if err := pu.Confirm(actor.UserID, s.now()); err != nil {
				return err
			}
			return claimAtCompletion(ctx, tx.Products(), policy, policy.Kind.Holder(pu.ID), pu.ProductID)
		})
}

// CancelPurchase refunds the buyer and puts the product back on the market.
func (s *Service) CancelPurchase(ctx context.Context, actor user.Actor, purchaseID uuid.UUID) (*PurchaseView, error) {
	policy := domainExchange.PurchasePolicy
	return s.mutatePurchase(ctx, actor, purchaseID, "cancel", audit.ActionCancel,
		func(ctx context.Context, tx ledger.Tx, pu *purchase.Purchase) error {
			from, err := pu.Cancel(actor.UserID, s.now())
			if err != nil {
				return err
			}
			if !policy.ReleasesOnCancelFrom(string(from)) {
				return nil
			}
			products, err := lockProducts(ctx, tx.Products(), pu.ProductID)
			if err != nil {
				return err
			}
			return release(ctx, tx.Products(), products[pu.ProductID], policy.Kind.Holder(pu.ID))
		})
}

func (s *Service) mutatePurchase(
	ctx context.Context,
	actor user.Actor,
	purchaseID uuid.UUID,
	op string,
	action audit.Action,
	apply func(ctx context.Context, tx ledger.Tx, pu *purchase.Purchase) error,
) (*PurchaseView, error) {
	t := transition{kind: domainExchange.KindPurchase, id: purchaseID, op: op, action: action}
	var updated *purchase.Purchase

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		pu, err := tx.Purchases().GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if pu == nil {
			return domainExchange.NotFound("purchase")
		}
		t.from = string(pu.Status)
		if err := apply(ctx, tx, pu); err != nil {
			return err
		}
		if err := tx.Purchases().Update(ctx, pu); err != nil {
			return err
		}
		t.to = string(pu.Status)
		t.counterparty = otherParty(actor.UserID, pu.BuyerID, pu.SellerID)
		updated = pu
		return nil
	})

	s.observe(ctx, actor, t, err)
	if err != nil {
		return nil, err
	}
	return s.joiner().purchase(ctx, updated)
}

// GetPurchase returns a purchase visible to its parties and to admins.
func (s *Service) GetPurchase(ctx context.Context, actor user.Actor, purchaseID uuid.UUID) (*PurchaseView, error) {
	pu, err := s.repos.Purchases.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if pu == nil {
		return nil, domainExchange.NotFound("purchase")
	}
	if !pu.IsParty(actor.UserID) && !actor.IsAdmin() {
		return nil, domainExchange.ErrNotParty
	}
	return s.joiner().purchase(ctx, pu)
}

// ListPurchases returns the caller's purchases as buyer or seller.
func (s *Service) ListPurchases(ctx context.Context, actor user.Actor, status *purchase.Status, limit, offset int) ([]*PurchaseView, error) {
	filter := purchase.Filter{ParticipantID: &actor.UserID, Status: status}
	items, err := s.repos.Purchases.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	j := s.joiner()
	views := make([]*PurchaseView, 0, len(items))
	for _, pu := range items {
		v, err := j.purchase(ctx, pu)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
