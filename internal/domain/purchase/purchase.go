package purchase

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/product"
)

// Status represents purchase status.
type Status string

const (
	// StatusPending is declared by the marketplace but never entered: purchases open directly in escrow.
	StatusPending   Status = "pending"
	StatusEscrow    Status = "escrow"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// Purchase is a direct buy of one product held in escrow until the seller confirms.
type Purchase struct {
	ID               uuid.UUID       `json:"id"`
	BuyerID          uuid.UUID       `json:"buyer_id"`
	SellerID         uuid.UUID       `json:"seller_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentReference string          `json:"payment_reference"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// New opens escrow for buyer on p. The amount is the price at this instant.
func New(buyerID uuid.UUID, p *product.Product, now time.Time) *Purchase {
	id := uuid.New()
	return &Purchase{
		ID:               id,
		BuyerID:          buyerID,
		SellerID:         p.OwnerID,
		ProductID:        p.ID,
		Amount:           p.Price,
		PaymentReference: NewPaymentReference(now),
		Status:           StatusEscrow,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewPaymentReference synthesizes a unique payment label. No gateway is involved.
func NewPaymentReference(now time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "MV-" + now.UTC().Format("20060102") + "-" + token[:16]
}

// IsActive reports whether the purchase still holds its product.
func (p *Purchase) IsActive() bool {
	return p.Status == StatusPending || p.Status == StatusEscrow
}

// IsParty reports whether userID is buyer or seller.
func (p *Purchase) IsParty(userID uuid.UUID) bool {
	return userID == p.BuyerID || userID == p.SellerID
}

// CanTransitionTo validates purchase status transition.
func (p *Purchase) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusEscrow, StatusRefunded},
		StatusEscrow:    {StatusCompleted, StatusRefunded},
		StatusCompleted: {},
		StatusRefunded:  {},
	}
	for _, s := range transitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Confirm releases escrow to the seller. Seller only.
func (p *Purchase) Confirm(actor uuid.UUID, now time.Time) error {
	if actor != p.SellerID {
		return exchange.ErrWrongParty
	}
	if p.Status != StatusEscrow {
		return exchange.TransitionError("confirm", string(p.Status))
	}
	p.Status = StatusCompleted
	p.UpdatedAt = now
	p.CompletedAt = &now
	return nil
}

// Cancel refunds the buyer. Either party may cancel while in escrow.
func (p *Purchase) Cancel(actor uuid.UUID, now time.Time) (Status, error) {
	if !p.IsParty(actor) {
		return p.Status, exchange.ErrNotParty
	}
	from := p.Status
	if !p.IsActive() || !p.CanTransitionTo(StatusRefunded) {
		return from, exchange.TransitionError("cancel", string(p.Status))
	}
	p.Status = StatusRefunded
	p.UpdatedAt = now
	return from, nil
}
