package exchange

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/product"
)

func TestReservationStage(t *testing.T) {
	tests := []struct {
		name          string
		policy        domainExchange.ReservationPolicy
		afterCreate   product.Availability
		afterComplete product.Availability
	}{
		{"purchase holds at create", domainExchange.PurchasePolicy, product.AvailabilitySold, product.AvailabilitySold},
		{"barter waits for completion", domainExchange.BarterPolicy, product.AvailabilityAvailable, product.AvailabilityBartered},
		{"trade-in waits for completion", domainExchange.TradeInPolicy, product.AvailabilityAvailable, product.AvailabilityTraded},
		{
			"reserved hold becomes final on completion",
			domainExchange.ReservationPolicy{
				Kind:      domainExchange.KindPurchase,
				ReserveAt: domainExchange.StageCreate,
				Hold:      product.AvailabilityReserved,
				Final:     product.AvailabilitySold,
			},
			product.AvailabilityReserved,
			product.AvailabilitySold,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.product(t, f.user(t, "owner"))
			holder := tt.policy.Kind.Holder(uuid.New())

			err := f.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				products, err := lockProducts(ctx, tx.Products(), p.ID)
				if err != nil {
					return err
				}
				return claimAtCreate(ctx, tx.Products(), tt.policy, holder, products[p.ID])
			})
			require.NoError(t, err)
			assert.Equal(t, tt.afterCreate, f.availability(t, p.ID))

			err = f.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				return claimAtCompletion(ctx, tx.Products(), tt.policy, holder, p.ID)
			})
			require.NoError(t, err)
			assert.Equal(t, tt.afterComplete, f.availability(t, p.ID))
		})
	}
}

func TestReservationStage_CreateRechecksClaimability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.user(t, "owner"), unverified)

	err := f.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		products, err := lockProducts(ctx, tx.Products(), p.ID)
		if err != nil {
			return err
		}
		policy := domainExchange.PurchasePolicy
		return claimAtCreate(ctx, tx.Products(), policy, policy.Kind.Holder(uuid.New()), products[p.ID])
	})
	assert.ErrorIs(t, err, domainExchange.ErrNotVerified)
	assert.Equal(t, product.AvailabilityAvailable, f.availability(t, p.ID))
}
