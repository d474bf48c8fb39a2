package exchange

import (
	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/product"
)

// Kind identifies one of the three exchange workflows.
type Kind string

const (
	KindPurchase Kind = "PURCHASE"
	KindBarter   Kind = "BARTER"
	KindTradeIn  Kind = "TRADE_IN"
)

// Holder returns the product hold reference for an exchange record.
func (k Kind) Holder(id uuid.UUID) product.Holder {
	return product.Holder{Kind: string(k), ID: id}
}

// Stage is the point in a workflow at which product availability is taken.
type Stage string

const (
	StageCreate     Stage = "CREATE"
	StageCompletion Stage = "COMPLETION"
)

// ReservationPolicy describes when a workflow claims products and what it
// leaves behind. The three workflows intentionally differ.
type ReservationPolicy struct {
	Kind        Kind
	ReserveAt   Stage
	Hold        product.Availability
	Final       product.Availability
	ReleaseFrom []string
}

// ReleasesOnCancelFrom reports whether cancelling from status gives the products back.
func (p ReservationPolicy) ReleasesOnCancelFrom(status string) bool {
	for _, s := range p.ReleaseFrom {
		if s == status {
			return true
		}
	}
	return false
}

// Purchases mark the product sold the moment escrow opens.
var PurchasePolicy = ReservationPolicy{
	Kind:        KindPurchase,
	ReserveAt:   StageCreate,
	Hold:        product.AvailabilitySold,
	Final:       product.AvailabilitySold,
	ReleaseFrom: []string{"escrow"},
}

// Barters leave both products untouched until both parties confirm.
var BarterPolicy = ReservationPolicy{
	Kind:        KindBarter,
	ReserveAt:   StageCompletion,
	Final:       product.AvailabilityBartered,
	ReleaseFrom: []string{"accepted"},
}

// Trade-ins leave both products untouched until the buyer pays.
var TradeInPolicy = ReservationPolicy{
	Kind:        KindTradeIn,
	ReserveAt:   StageCompletion,
	Final:       product.AvailabilityTraded,
	ReleaseFrom: []string{"accepted"},
}
