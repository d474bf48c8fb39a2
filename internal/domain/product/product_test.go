package product

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct() *Product {
	return &Product{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Name:         "Film camera",
		Price:        decimal.NewFromInt(500000),
		Verification: VerificationPending,
		Availability: AvailabilityAvailable,
	}
}

func TestProduct_IsClaimable(t *testing.T) {
	p := newProduct()
	assert.False(t, p.IsClaimable(), "pending products are not claimable")

	p.Verification = VerificationApproved
	assert.True(t, p.IsClaimable())

	for _, a := range []Availability{AvailabilityReserved, AvailabilitySold, AvailabilityBartered, AvailabilityTraded, AvailabilityArchived} {
		p.Availability = a
		assert.False(t, p.IsClaimable(), "availability %s", a)
	}
}

func TestProduct_IsFinal(t *testing.T) {
	p := newProduct()
	assert.False(t, p.IsFinal())
	p.Availability = AvailabilityReserved
	assert.False(t, p.IsFinal())
	p.Availability = AvailabilityBartered
	assert.True(t, p.IsFinal())
}

func TestProduct_VerificationTransitions(t *testing.T) {
	now := time.Now().UTC()

	t.Run("approve pending", func(t *testing.T) {
		p := newProduct()
		require.NoError(t, p.Approve(nil, now))
		assert.Equal(t, VerificationApproved, p.Verification)
		require.NotNil(t, p.VerifiedAt)
	})

	t.Run("approved is final", func(t *testing.T) {
		p := newProduct()
		require.NoError(t, p.Approve(nil, now))
		assert.ErrorIs(t, p.Reject(nil, now), ErrInvalidVerificationTransition)
		assert.ErrorIs(t, p.Resubmit(now), ErrInvalidVerificationTransition)
	})

	t.Run("reject then resubmit", func(t *testing.T) {
		p := newProduct()
		note := "blurry photos"
		require.NoError(t, p.Reject(&note, now))
		assert.Equal(t, VerificationRejected, p.Verification)
		assert.Equal(t, "blurry photos", *p.VerificationNote)

		require.NoError(t, p.Resubmit(now))
		assert.Equal(t, VerificationPending, p.Verification)
		assert.Nil(t, p.VerificationNote)
		assert.Nil(t, p.VerifiedAt)
	})

	t.Run("rejected cannot be approved directly", func(t *testing.T) {
		p := newProduct()
		require.NoError(t, p.Reject(nil, now))
		assert.ErrorIs(t, p.Approve(nil, now), ErrInvalidVerificationTransition)
	})
}

func TestProduct_Validate(t *testing.T) {
	p := newProduct()
	require.NoError(t, p.Validate())

	p.Name = "  "
	assert.ErrorIs(t, p.Validate(), ErrNameRequired)

	p = newProduct()
	p.Price = decimal.Zero
	assert.ErrorIs(t, p.Validate(), ErrInvalidPrice)

	p = newProduct()
	p.TradeInValue = decimal.NewFromInt(-1)
	assert.ErrorIs(t, p.Validate(), ErrInvalidTradeInValue)
}

func TestProduct_IsHeldBy(t *testing.T) {
	p := newProduct()
	h := Holder{Kind: "PURCHASE", ID: uuid.New()}
	assert.False(t, p.IsHeldBy(h))
	p.HeldBy = &h
	assert.True(t, p.IsHeldBy(h))
	assert.False(t, p.IsHeldBy(Holder{Kind: "PURCHASE", ID: uuid.New()}))
}
