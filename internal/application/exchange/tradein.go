package exchange

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// CreateTradeInInput offers the caller's old product plus the difference for a new one.
type CreateTradeInInput struct {
	OldProductID uuid.UUID `json:"old_product_id"`
	NewProductID uuid.UUID `json:"new_product_id"`
	Note         string    `json:"note"`
}

// CreateTradeIn records a pending trade-in with its price difference fixed at creation.
func (s *Service) CreateTradeIn(ctx context.Context, actor user.Actor, input CreateTradeInInput) (*TradeInView, error) {
	policy := domainExchange.TradeInPolicy
	var created *tradein.TradeIn

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		products, err := lockProducts(ctx, tx.Products(), input.OldProductID, input.NewProductID)
		if err != nil {
			return err
		}
		old := products[input.OldProductID]
		wanted := products[input.NewProductID]

		if old.OwnerID != actor.UserID {
			return domainExchange.ErrNotOwner
		}
		if old.ID == wanted.ID || wanted.OwnerID == actor.UserID {
			return domainExchange.ErrSelfDealing
		}
		if !wanted.TradeInEnabled {
			return domainExchange.ErrTradeInDisabled
		}
		if err := checkPair(ctx, tx, old, wanted); err != nil {
			return err
		}

		ti := tradein.New(actor.UserID, wanted.OwnerID, old.ID, wanted.ID, old.Price, wanted.Price, strings.TrimSpace(input.Note), s.now())
		if err := tx.TradeIns().Create(ctx, ti); err != nil {
			return err
		}
		if err := claimAtCreate(ctx, tx.Products(), policy, policy.Kind.Holder(ti.ID), old, wanted); err != nil {
			return err
		}
		created = ti
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
	return s.joiner().tradeIn(ctx, created)
}

// AcceptTradeIn is seller only. Products stay untouched.
func (s *Service) AcceptTradeIn(ctx context.Context, actor user.Actor, tradeInID uuid.UUID) (*TradeInView, error) {
	return s.mutateTradeIn(ctx, actor, tradeInID, "accept", audit.ActionAccept,
		func(ctx context.Context, tx ledger.Tx, ti *tradein.TradeIn) error {
			return ti.Accept(actor.UserID, s.now())
		})
}

// RejectTradeIn is seller only.
func (s *Service) RejectTradeIn(ctx context.Context, actor user.Actor, tradeInID uuid.UUID) (*TradeInView, error) {
	return s.mutateTradeIn(ctx, actor, tradeInID, "reject", audit.ActionReject,
		func(ctx context.Context, tx ledger.Tx, ti *tradein.TradeIn) error {
			return ti.Reject(actor.UserID, s.now())
		})
}

// PayTradeIn marks the difference paid, completes the trade-in and finalizes both products as traded.
func (s *Service) PayTradeIn(ctx context.Context, actor user.Actor, tradeInID uuid.UUID) (*TradeInView, error) {
	policy := domainExchange.TradeInPolicy
	return s.mutateTradeIn(ctx, actor, tradeInID, "pay", audit.ActionPay,
		func(ctx context.Context, tx ledger.Tx, ti *tradein.TradeIn) error {
			if err := ti.Pay(actor.UserID, s.now()); err != nil {
				return err
			}
			return claimAtCompletion(ctx, tx.Products(), policy, policy.Kind.Holder(ti.ID), ti.ProductIDs()...)
		})
}

// CancelTradeIn withdraws a pending or accepted trade-in. Only cancelling
// from accepted gives the products back, even though accepting held nothing.
func (s *Service) CancelTradeIn(ctx context.Context, actor user.Actor, tradeInID uuid.UUID) (*TradeInView, error) {
	policy := domainExchange.TradeInPolicy
	return s.mutateTradeIn(ctx, actor, tradeInID, "cancel", audit.ActionCancel,
		func(ctx context.Context, tx ledger.Tx, ti *tradein.TradeIn) error {
			from, err := ti.Cancel(actor.UserID, s.now())
			if err != nil {
				return err
			}
			if !policy.ReleasesOnCancelFrom(string(from)) {
				return nil
			}
			return releaseAll(ctx, tx.Products(), policy.Kind.Holder(ti.ID), ti.ProductIDs()...)
		})
}

func (s *Service) mutateTradeIn(
	ctx context.Context,
	actor user.Actor,
	tradeInID uuid.UUID,
	op string,
	action audit.Action,
	apply func(ctx context.Context, tx ledger.Tx, ti *tradein.TradeIn) error,
) (*TradeInView, error) {
	t := transition{kind: domainExchange.KindTradeIn, id: tradeInID, op: op, action: action}
	var updated *tradein.TradeIn

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		ti, err := tx.TradeIns().GetForUpdate(ctx, tradeInID)
		if err != nil {
			return err
		}
		if ti == nil {
			return domainExchange.NotFound("trade-in")
		}
		t.from = string(ti.Status)
		if err := apply(ctx, tx, ti); err != nil {
			return err
		}
		if err := tx.TradeIns().Update(ctx, ti); err != nil {
			return err
		}
		t.to = string(ti.Status)
		t.counterparty = otherParty(actor.UserID, ti.BuyerID, ti.SellerID)
		updated = ti
		return nil
	})

	s.observe(ctx, actor, t, err)
	if err != nil {
		return nil, err
	}
	return s.joiner().tradeIn(ctx, updated)
}

// GetTradeIn returns a trade-in visible to its parties and to admins.
func (s *Service) GetTradeIn(ctx context.Context, actor user.Actor, tradeInID uuid.UUID) (*TradeInView, error) {
	ti, err := s.repos.TradeIns.GetByID(ctx, tradeInID)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return nil, domainExchange.NotFound("trade-in")
	}
	if !ti.IsParty(actor.UserID) && !actor.IsAdmin() {
		return nil, domainExchange.ErrNotParty
	}
	return s.joiner().tradeIn(ctx, ti)
}

// ListTradeIns returns trade-ins where the caller is buyer or seller.
func (s *Service) ListTradeIns(ctx context.Context, actor user.Actor, status *tradein.Status, limit, offset int) ([]*TradeInView, error) {
	filter := tradein.Filter{ParticipantID: &actor.UserID, Status: status}
	items, err := s.repos.TradeIns.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	j := s.joiner()
	views := make([]*TradeInView, 0, len(items))
	for _, ti := range items {
		v, err := j.tradeIn(ctx, ti)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
