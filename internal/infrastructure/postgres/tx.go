package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
)

// Store runs exchange units of work in serializable transactions and hands out
// pool-bound repositories for everything else.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx commits only when fn returns nil. Serialization failures and
// active-pair index violations surface as domain errors.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		return translate(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Store) Users() *UserRepository         { return &UserRepository{q: s.pool} }
func (s *Store) Products() *ProductRepository   { return &ProductRepository{q: s.pool} }
func (s *Store) Purchases() *PurchaseRepository { return &PurchaseRepository{q: s.pool} }
func (s *Store) Barters() *BarterRepository     { return &BarterRepository{q: s.pool} }
func (s *Store) TradeIns() *TradeInRepository   { return &TradeInRepository{q: s.pool} }
func (s *Store) Reviews() *ReviewRepository     { return &ReviewRepository{q: s.pool} }
func (s *Store) Audit() *AuditRepository        { return &AuditRepository{q: s.pool} }
func (s *Store) Stats() *StatsRepository        { return &StatsRepository{q: s.pool} }

type pgTx struct {
	q querier
}

func (t *pgTx) Products() ledger.ProductLedger  { return &ProductRepository{q: t.q} }
func (t *pgTx) Purchases() purchase.Repository { return &PurchaseRepository{q: t.q} }
func (t *pgTx) Barters() barter.Repository     { return &BarterRepository{q: t.q} }
func (t *pgTx) TradeIns() tradein.Repository   { return &TradeInRepository{q: t.q} }

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
