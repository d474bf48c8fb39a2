// Package ledger defines the transactional boundary of the exchange engine.
// Product availability is writable only through a Tx obtained here.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
)

// ProductLedger reads products under lock and performs every write whose
// precondition depends on the product's exchange state.
type ProductLedger interface {
	// GetForUpdate locks the product row until the transaction ends. Nil when missing.
	GetForUpdate(ctx context.Context, productID uuid.UUID) (*product.Product, error)
	// SetAvailability writes availability together with its owning hold (nil clears it).
	SetAvailability(ctx context.Context, productID uuid.UUID, availability product.Availability, holder *product.Holder) error
	UpdateDetails(ctx context.Context, p *product.Product) error
	// HasHistory reports whether any purchase, barter or trade-in references the product.
	HasHistory(ctx context.Context, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

// Tx is one serializable unit of work.
type Tx interface {
	Products() ProductLedger
	Purchases() purchase.Repository
	Barters() barter.Repository
	TradeIns() tradein.Repository
}

// Store runs units of work. A non-nil error from fn rolls back every write made through tx.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
