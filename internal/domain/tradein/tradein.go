package tradein

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

// Status represents trade-in status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is a label; no money moves.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// TradeIn swaps the buyer's old product plus a cash difference for the seller's new product.
type TradeIn struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	OldProductID    uuid.UUID       `json:"old_product_id"`
	NewProductID    uuid.UUID       `json:"new_product_id"`
	PriceDifference decimal.Decimal `json:"price_difference"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Note            string          `json:"note"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// PriceDifference is what the buyer owes on top of the old product. Never negative.
func PriceDifference(oldPrice, newPrice decimal.Decimal) decimal.Decimal {
	diff := newPrice.Sub(oldPrice)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// New builds a pending trade-in. The price difference is fixed here and never recomputed.
func New(buyerID, sellerID, oldProductID, newProductID uuid.UUID, oldPrice, newPrice decimal.Decimal, note string, now time.Time) *TradeIn {
	return &TradeIn{
		ID:              uuid.New(),
		BuyerID:         buyerID,
		SellerID:        sellerID,
		OldProductID:    oldProductID,
		NewProductID:    newProductID,
		PriceDifference: PriceDifference(oldPrice, newPrice),
		PaymentStatus:   PaymentUnpaid,
		Note:            note,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsActive reports whether the trade-in is non-terminal.
func (t *TradeIn) IsActive() bool {
	return t.Status == StatusPending || t.Status == StatusAccepted
}

// IsParty reports whether userID is buyer or seller.
func (t *TradeIn) IsParty(userID uuid.UUID) bool {
	return userID == t.BuyerID || userID == t.SellerID
}

// ProductIDs returns both referenced products, old first.
func (t *TradeIn) ProductIDs() []uuid.UUID {
	return []uuid.UUID{t.OldProductID, t.NewProductID}
}

// CanTransitionTo validates trade-in status transition.
func (t *TradeIn) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted:  {StatusCompleted, StatusCancelled},
		StatusRejected:  {},
		StatusCompleted: {},
		StatusCancelled: {},
	}
	for _, s := range transitions[t.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Accept is seller only, from pending. Products are not touched.
func (t *TradeIn) Accept(actor uuid.UUID, now time.Time) error {
	return t.respond(actor, StatusAccepted, "accept", now)
}

// Reject is seller only, from pending.
func (t *TradeIn) Reject(actor uuid.UUID, now time.Time) error {
	return t.respond(actor, StatusRejected, "reject", now)
}

func (t *TradeIn) respond(actor uuid.UUID, target Status, op string, now time.Time) error {
	if actor != t.SellerID {
		return exchange.ErrWrongParty
	}
	if t.Status != StatusPending {
		return exchange.TransitionError(op, string(t.Status))
	}
	t.Status = target
	t.UpdatedAt = now
	return nil
}

// Pay marks the difference paid and completes the trade-in. Buyer only.
func (t *TradeIn) Pay(actor uuid.UUID, now time.Time) error {
	if actor != t.BuyerID {
		return exchange.ErrWrongParty
	}
	if t.Status != StatusAccepted {
		return exchange.TransitionError("pay", string(t.Status))
	}
	t.PaymentStatus = PaymentPaid
	t.Status = StatusCompleted
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// Cancel withdraws a pending or accepted trade-in. It returns the status cancelled from.
func (t *TradeIn) Cancel(actor uuid.UUID, now time.Time) (Status, error) {
	if !t.IsParty(actor) {
		return t.Status, exchange.ErrNotParty
	}
	from := t.Status
	if !t.CanTransitionTo(StatusCancelled) {
		return from, exchange.TransitionError("cancel", string(t.Status))
	}
	t.Status = StatusCancelled
	t.UpdatedAt = now
	return from, nil
}
