package purchase

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/product"
)

func newPurchase(t *testing.T) *Purchase {
	t.Helper()
	p := &product.Product{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Price:   decimal.NewFromInt(250000),
	}
	return New(uuid.New(), p, time.Now().UTC())
}

func TestNew_OpensEscrowWithPriceSnapshot(t *testing.T) {
	p := &product.Product{ID: uuid.New(), OwnerID: uuid.New(), Price: decimal.RequireFromString("125000.50")}
	buyer := uuid.New()
	pu := New(buyer, p, time.Now().UTC())

	assert.Equal(t, StatusEscrow, pu.Status)
	assert.Equal(t, buyer, pu.BuyerID)
	assert.Equal(t, p.OwnerID, pu.SellerID)
	assert.True(t, pu.Amount.Equal(p.Price))

	p.Price = decimal.NewFromInt(1)
	assert.Equal(t, "125000.5", pu.Amount.String(), "amount is a snapshot")
	assert.True(t, pu.IsActive())
}

func TestNewPaymentReference_Unique(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		ref := NewPaymentReference(now)
		require.True(t, strings.HasPrefix(ref, "MV-20260301-"))
		_, dup := seen[ref]
		require.False(t, dup)
		seen[ref] = struct{}{}
	}
}

func TestPurchase_Confirm(t *testing.T) {
	now := time.Now().UTC()

	t.Run("seller confirms", func(t *testing.T) {
		pu := newPurchase(t)
		require.NoError(t, pu.Confirm(pu.SellerID, now))
		assert.Equal(t, StatusCompleted, pu.Status)
		assert.NotNil(t, pu.CompletedAt)
	})

	t.Run("buyer cannot confirm", func(t *testing.T) {
		pu := newPurchase(t)
		err := pu.Confirm(pu.BuyerID, now)
		assert.ErrorIs(t, err, exchange.ErrUnauthorized)
		assert.Equal(t, StatusEscrow, pu.Status)
	})

	t.Run("terminal purchases reject confirm", func(t *testing.T) {
		pu := newPurchase(t)
		_, err := pu.Cancel(pu.BuyerID, now)
		require.NoError(t, err)
		assert.ErrorIs(t, pu.Confirm(pu.SellerID, now), exchange.ErrStateConflict)
	})
}

func TestPurchase_Cancel(t *testing.T) {
	now := time.Now().UTC()

	for _, who := range []string{"buyer", "seller"} {
		t.Run(who, func(t *testing.T) {
			pu := newPurchase(t)
			actor := pu.BuyerID
			if who == "seller" {
				actor = pu.SellerID
			}
			from, err := pu.Cancel(actor, now)
			require.NoError(t, err)
			assert.Equal(t, StatusEscrow, from)
			assert.Equal(t, StatusRefunded, pu.Status)
			assert.False(t, pu.IsActive())
		})
	}

	t.Run("stranger", func(t *testing.T) {
		pu := newPurchase(t)
		_, err := pu.Cancel(uuid.New(), now)
		assert.ErrorIs(t, err, exchange.ErrUnauthorized)
	})

	t.Run("completed is immutable", func(t *testing.T) {
		pu := newPurchase(t)
		require.NoError(t, pu.Confirm(pu.SellerID, now))
		_, err := pu.Cancel(pu.BuyerID, now)
		assert.ErrorIs(t, err, exchange.ErrStateConflict)
		assert.Equal(t, StatusCompleted, pu.Status)
	})
}

func TestPurchaseStatusMatchesReleasePolicy(t *testing.T) {
	assert.True(t, exchange.PurchasePolicy.ReleasesOnCancelFrom(string(StatusEscrow)))
	assert.False(t, exchange.PurchasePolicy.ReleasesOnCancelFrom(string(StatusCompleted)))
}
