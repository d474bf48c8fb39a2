// Package memory is an in-process store with the same transactional
// contract as the postgres package. A transaction works on a private copy
// of the data and publishes it only when fn succeeds.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/review"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

var (
	ErrDuplicate = errors.New("duplicate key")
	ErrMissing   = errors.New("record does not exist")
)

type state struct {
	users     map[uuid.UUID]*user.User
	products  map[uuid.UUID]*product.Product
	purchases map[uuid.UUID]*purchase.Purchase
	barters   map[uuid.UUID]*barter.Barter
	tradeIns  map[uuid.UUID]*tradein.TradeIn
	reviews   map[uuid.UUID]*review.Review
	audits    []*audit.AuditLog
	auditSeq  int64
}

func newState() *state {
	return &state{
		users:     map[uuid.UUID]*user.User{},
		products:  map[uuid.UUID]*product.Product{},
		purchases: map[uuid.UUID]*purchase.Purchase{},
		barters:   map[uuid.UUID]*barter.Barter{},
		tradeIns:  map[uuid.UUID]*tradein.TradeIn{},
		reviews:   map[uuid.UUID]*review.Review{},
	}
}

// clone copies the maps. Records are never mutated in place, only replaced,
// so sharing record pointers between snapshots is safe.
func (s *state) clone() *state {
	c := &state{
		users:     make(map[uuid.UUID]*user.User, len(s.users)),
		products:  make(map[uuid.UUID]*product.Product, len(s.products)),
		purchases: make(map[uuid.UUID]*purchase.Purchase, len(s.purchases)),
		barters:   make(map[uuid.UUID]*barter.Barter, len(s.barters)),
		tradeIns:  make(map[uuid.UUID]*tradein.TradeIn, len(s.tradeIns)),
		reviews:   make(map[uuid.UUID]*review.Review, len(s.reviews)),
		audits:    append([]*audit.AuditLog(nil), s.audits...),
		auditSeq:  s.auditSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = v
	}
	for k, v := range s.barters {
		c.barters[k] = v
	}
	for k, v := range s.tradeIns {
		c.tradeIns[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

// Store holds all marketplace data in memory.
type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// WithinTx runs fn with exclusive access. Writes become visible only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &tx{v: view{st: work}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Users() *UserRepository         { return &UserRepository{v: view{store: s}} }
func (s *Store) Products() *ProductRepository   { return &ProductRepository{v: view{store: s}} }
func (s *Store) Purchases() *PurchaseRepository { return &PurchaseRepository{v: view{store: s}} }
func (s *Store) Barters() *BarterRepository     { return &BarterRepository{v: view{store: s}} }
func (s *Store) TradeIns() *TradeInRepository   { return &TradeInRepository{v: view{store: s}} }
func (s *Store) Reviews() *ReviewRepository     { return &ReviewRepository{v: view{store: s}} }
func (s *Store) Audit() *AuditRepository        { return &AuditRepository{v: view{store: s}} }
func (s *Store) Stats() *StatsRepository        { return &StatsRepository{v: view{store: s}} }

type tx struct {
	v view
}

func (t *tx) Products() ledger.ProductLedger  { return &ProductRepository{v: t.v} }
func (t *tx) Purchases() purchase.Repository { return &PurchaseRepository{v: t.v} }
func (t *tx) Barters() barter.Repository     { return &BarterRepository{v: t.v} }
func (t *tx) TradeIns() tradein.Repository   { return &TradeInRepository{v: t.v} }

// view is either bound to a transaction snapshot or to the live store.
type view struct {
	store *Store
	st    *state
}

func (v view) read(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

func (v view) write(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}

func samePair(a1, b1, a2, b2 uuid.UUID) bool {
	return (a1 == a2 && b1 == b2) || (a1 == b2 && b1 == a2)
}
