package postgres

import (
	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/review"
	"github.com/midas-vault/midas-vault/internal/domain/stats"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

var (
	_ ledger.Store         = (*Store)(nil)
	_ ledger.ProductLedger = (*ProductRepository)(nil)
	_ product.Repository   = (*ProductRepository)(nil)
	_ user.Repository      = (*UserRepository)(nil)
	_ purchase.Repository  = (*PurchaseRepository)(nil)
	_ barter.Repository    = (*BarterRepository)(nil)
	_ tradein.Repository   = (*TradeInRepository)(nil)
	_ review.Repository    = (*ReviewRepository)(nil)
	_ audit.Repository     = (*AuditRepository)(nil)
	_ stats.Repository     = (*StatsRepository)(nil)
)
