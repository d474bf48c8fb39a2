package exchange

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"

	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/product"
)

// This file is the only place product availability is written.

// lockProducts loads and locks products in a fixed order so that two
// transactions touching the same pair never wait on each other in a cycle.
// The result is keyed by id.
func lockProducts(ctx context.Context, pl ledger.ProductLedger, ids ...uuid.UUID) (map[uuid.UUID]*product.Product, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	out := make(map[uuid.UUID]*product.Product, len(sorted))
	for _, id := range sorted {
		if _, seen := out[id]; seen {
			continue
		}
		p, err := pl.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domainExchange.NotFound("product")
		}
		out[id] = p
	}
	return out, nil
}

// checkClaimable reports the first failing claimability precondition.
func checkClaimable(p *product.Product) error {
	if p.IsClaimable() {
		return nil
	}
	if p.Verification != product.VerificationApproved {
		return domainExchange.ErrNotVerified
	}
	if p.Availability != product.AvailabilityAvailable {
		return domainExchange.ErrNotAvailable
	}
	return nil
}

// reserve takes the product for holder according to policy.
func reserve(ctx context.Context, pl ledger.ProductLedger, p *product.Product, policy domainExchange.ReservationPolicy, holder product.Holder) error {
	if p.HeldBy != nil && *p.HeldBy != holder {
		return domainExchange.ErrProductHeld
	}
	if err := checkClaimable(p); err != nil {
		return err
	}
	if err := pl.SetAvailability(ctx, p.ID, policy.Hold, &holder); err != nil {
		return err
	}
	p.Availability = policy.Hold
	p.HeldBy = &holder
	return nil
}

// release gives the product back to the marketplace. Holds owned by another
// exchange and final states reached elsewhere are left alone.
func release(ctx context.Context, pl ledger.ProductLedger, p *product.Product, holder product.Holder) error {
	switch {
	case p.HeldBy != nil && *p.HeldBy != holder:
		return nil
	case p.HeldBy == nil && p.IsFinal():
		return nil
	case p.HeldBy == nil && p.Availability == product.AvailabilityAvailable:
		return nil
	}
	if err := pl.SetAvailability(ctx, p.ID, product.AvailabilityAvailable, nil); err != nil {
		return err
	}
	p.Availability = product.AvailabilityAvailable
	p.HeldBy = nil
	return nil
}

// finalize moves the product to the policy's terminal availability.
func finalize(ctx context.Context, pl ledger.ProductLedger, p *product.Product, policy domainExchange.ReservationPolicy, holder product.Holder) error {
	if p.HeldBy != nil && *p.HeldBy != holder {
		return domainExchange.ErrProductHeld
	}
	if p.HeldBy == nil && p.Availability != product.AvailabilityAvailable {
		return domainExchange.ErrNotAvailable
	}
	if err := pl.SetAvailability(ctx, p.ID, policy.Final, &holder); err != nil {
		return err
	}
	p.Availability = policy.Final
	p.HeldBy = &holder
	return nil
}

// claimAtCreate reserves products for a new exchange when the policy takes
// them up front. Policies that wait for completion leave them on the market.
func claimAtCreate(ctx context.Context, pl ledger.ProductLedger, policy domainExchange.ReservationPolicy, holder product.Holder, products ...*product.Product) error {
	if policy.ReserveAt != domainExchange.StageCreate {
		return nil
	}
	for _, p := range products {
		if err := reserve(ctx, pl, p, policy, holder); err != nil {
			return err
		}
	}
	return nil
}

// claimAtCompletion moves products to the policy's final availability when the
// exchange completes. A hold taken at creation that is already final stays as is.
func claimAtCompletion(ctx context.Context, pl ledger.ProductLedger, policy domainExchange.ReservationPolicy, holder product.Holder, ids ...uuid.UUID) error {
	if policy.ReserveAt == domainExchange.StageCreate && policy.Hold == policy.Final {
		return nil
	}
	return finalizeAll(ctx, pl, policy, holder, ids...)
}
