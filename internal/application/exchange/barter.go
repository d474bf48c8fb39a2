package exchange

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// CreateBarterInput proposes swapping the caller's product for another.
type CreateBarterInput struct {
	RequesterProductID uuid.UUID `json:"requester_product_id"`
	ReceiverProductID  uuid.UUID `json:"receiver_product_id"`
	Note               string    `json:"note"`
}

// CreateBarter records a pending offer. Neither product is reserved.
func (s *Service) CreateBarter(ctx context.Context, actor user.Actor, input CreateBarterInput) (*BarterView, error) {
	policy := domainExchange.BarterPolicy
	var created *barter.Barter

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		products, err := lockProducts(ctx, tx.Products(), input.RequesterProductID, input.ReceiverProductID)
		if err != nil {
			return err
		}
		offered := products[input.RequesterProductID]
		wanted := products[input.ReceiverProductID]

		if offered.OwnerID != actor.UserID {
			return domainExchange.ErrNotOwner
		}
		if offered.ID == wanted.ID || wanted.OwnerID == actor.UserID {
			return domainExchange.ErrSelfDealing
		}
		if !wanted.BarterEnabled {
			return domainExchange.ErrBarterDisabled
		}
		if err := checkPair(ctx, tx, offered, wanted); err != nil {
			return err
		}

		b := barter.New(actor.UserID, wanted.OwnerID, offered.ID, wanted.ID, strings.TrimSpace(input.Note), s.now())
		if err := tx.Barters().Create(ctx, b); err != nil {
			return err
		}
		if err := claimAtCreate(ctx, tx.Products(), policy, policy.Kind.Holder(b.ID), offered, wanted); err != nil {
			return err
		}
		created = b
		return nil
	})

	t := transition{kind: policy.Kind, op: "create", action: audit.ActionCreate}
	if created != nil {
		t.id, t.to, t.counterparty = created.ID, string(created.Status), created.ReceiverID
	}
	s.observe(ctx, actor, t, err)
	if err != nil {
		return nil, err
	}
	return s.joiner().barter(ctx, created)
}

// checkPair applies verification, availability and active-pair checks, in that order.
func checkPair(ctx context.Context, tx ledger.Tx, a, b *product.Product) error {
	for _, p := range []*product.Product{a, b} {
		if p.Verification != product.VerificationApproved {
			return domainExchange.ErrNotVerified
		}
	}
	for _, p := range []*product.Product{a, b} {
		if p.Availability != product.AvailabilityAvailable {
			return domainExchange.ErrNotAvailable
		}
	}
	return checkActivePair(ctx, tx, a.ID, b.ID)
}

// checkActivePair rejects a second active barter or trade-in over the same unordered pair.
func checkActivePair(ctx context.Context, tx ledger.Tx, a, b uuid.UUID) error {
	active, err := tx.Barters().HasActiveForPair(ctx, a, b)
	if err != nil {
		return err
	}
	if !active {
		active, err = tx.TradeIns().HasActiveForPair(ctx, a, b)
		if err != nil {
			return err
		}
	}
	if active {
		return domainExchange.ErrActiveExchangeExists
	}
	return nil
}

// AcceptBarter is receiver only. Products stay untouched.
func (s *Service) AcceptBarter(ctx context.Context, actor user.Actor, barterID uuid.UUID) (*BarterView, error) {
	return s.mutateBarter(ctx, actor, barterID, "accept", audit.ActionAccept,
		func(ctx context.Context, tx ledger.Tx, b *barter.Barter) error {
			return b.Accept(actor.UserID, s.now())
		})
}

// RejectBarter is receiver only. A rejected barter never held anything.
func (s *Service) RejectBarter(ctx context.Context, actor user.Actor, barterID uuid.UUID) (*BarterView, error) {
	return s.mutateBarter(ctx, actor, barterID, "reject", audit.ActionReject,
		func(ctx context.Context, tx ledger.Tx, b *barter.Barter) error {
			return b.Reject(actor.UserID, s.now())
		})
}

// ConfirmBarter records one party's confirmation. The second confirmation
// completes the barter and finalizes both products as bartered.
func (s *Service) ConfirmBarter(ctx context.Context, actor user.Actor, barterID uuid.UUID) (*BarterView, error) {
	policy := domainExchange.BarterPolicy
	return s.mutateBarter(ctx, actor, barterID, "confirm", audit.ActionConfirm,
		func(ctx context.Context, tx ledger.Tx, b *barter.Barter) error {
			completed, err := b.Confirm(actor.UserID, s.now())
			if err != nil || !completed {
				return err
			}
			return claimAtCompletion(ctx, tx.Products(), policy, policy.Kind.Holder(b.ID), b.ProductIDs()...)
		})
}

// CancelBarter withdraws a pending or accepted barter. Only an accepted one releases products.
func (s *Service) CancelBarter(ctx context.Context, actor user.Actor, barterID uuid.UUID) (*BarterView, error) {
	policy := domainExchange.BarterPolicy
	return s.mutateBarter(ctx, actor, barterID, "cancel", audit.ActionCancel,
		func(ctx context.Context, tx ledger.Tx, b *barter.Barter) error {
			from, err := b.Cancel(actor.UserID, s.now())
			if err != nil {
				return err
			}
			if !policy.ReleasesOnCancelFrom(string(from)) {
				return nil
			}
			return releaseAll(ctx, tx.Products(), policy.Kind.Holder(b.ID), b.ProductIDs()...)
		})
}

func finalizeAll(ctx context.Context, pl ledger.ProductLedger, policy domainExchange.ReservationPolicy, holder product.Holder, ids ...uuid.UUID) error {
	products, err := lockProducts(ctx, pl, ids...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := finalize(ctx, pl, products[id], policy, holder); err != nil {
			return err
		}
	}
	return nil
}

func releaseAll(ctx context.Context, pl ledger.ProductLedger, holder product.Holder, ids ...uuid.UUID) error {
	products, err := lockProducts(ctx, pl, ids...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := release(ctx, pl, products[id], holder); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) mutateBarter(
	ctx context.Context,
	actor user.Actor,
	barterID uuid.UUID,
	op string,
	action audit.Action,
	apply func(ctx context.Context, tx ledger.Tx, b *barter.Barter) error,
) (*BarterView, error) {
	t := transition{kind: domainExchange.KindBarter, id: barterID, op: op, action: action}
	var updated *barter.Barter

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		b, err := tx.Barters().GetForUpdate(ctx, barterID)
		if err != nil {
			return err
		}
		if b == nil {
			return domainExchange.NotFound("barter")
		}
		t.from = string(b.Status)
		if err := apply(ctx, tx, b); err != nil {
			return err
		}
		if err := tx.Barters().Update(ctx, b); err != nil {
			return err
		}
		t.to = string(b.Status)
		t.counterparty = otherParty(actor.UserID, b.RequesterID, b.ReceiverID)
		updated = b
		return nil
	})

	s.observe(ctx, actor, t, err)
	if err != nil {
		return nil, err
	}
	return s.joiner().barter(ctx, updated)
}

// GetBarter returns a barter visible to its parties and to admins.
func (s *Service) GetBarter(ctx context.Context, actor user.Actor, barterID uuid.UUID) (*BarterView, error) {
	b, err := s.repos.Barters.GetByID(ctx, barterID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domainExchange.NotFound("barter")
	}
	if !b.IsParty(actor.UserID) && !actor.IsAdmin() {
		return nil, domainExchange.ErrNotParty
	}
	return s.joiner().barter(ctx, b)
}

// ListBarters returns barters the caller sent or received.
func (s *Service) ListBarters(ctx context.Context, actor user.Actor, status *barter.Status, limit, offset int) ([]*BarterView, error) {
	filter := barter.Filter{ParticipantID: &actor.UserID, Status: status}
	items, err := s.repos.Barters.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	j := s.joiner()
	views := make([]*BarterView, 0, len(items))
	for _, b := range items {
		v, err := j.barter(ctx, b)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
