package exchange

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/notification"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/user"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]*notification.SSEMessage
}

func (p *recordingPublisher) BroadcastToUser(userID string, msg *notification.SSEMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = map[string][]*notification.SSEMessage{}
	}
	p.messages[userID] = append(p.messages[userID], msg)
}

func (p *recordingPublisher) count(userID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[userID.String()])
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*audit.AuditEntry
}

func (a *recordingAudit) Log(ctx context.Context, entry *audit.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

type outcome struct {
	kind domainExchange.Kind
	op   string
	ok   bool
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (r *recordingRecorder) Transition(kind domainExchange.Kind, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome{kind: kind, op: op, ok: err == nil})
}

type fixture struct {
	store     *memory.Store
	svc       *Service
	publisher *recordingPublisher
	audit     *recordingAudit
	recorder  *recordingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:     store,
		publisher: &recordingPublisher{},
		audit:     &recordingAudit{},
		recorder:  &recordingRecorder{},
	}
	f.svc = NewService(store, Repositories{
		Products:  store.Products(),
		Users:     store.Users(),
		Purchases: store.Purchases(),
		Barters:   store.Barters(),
		TradeIns:  store.TradeIns(),
	}, f.audit, f.publisher, f.recorder, zerolog.Nop())
	return f
}

func (f *fixture) user(t *testing.T, name string) user.Actor {
	t.Helper()
	now := time.Now().UTC()
	u := &user.User{
		ID:        uuid.New(),
		Username:  name,
		Email:     name + "@example.com",
		FullName:  name,
		Role:      user.RoleUser,
		Status:    user.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return user.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

type productOpt func(p *product.Product)

func withPrice(v int64) productOpt {
	return func(p *product.Product) { p.Price = decimal.NewFromInt(v) }
}

func unverified(p *product.Product) { p.Verification = product.VerificationPending }

func noBarter(p *product.Product) { p.BarterEnabled = false }

func noTradeIn(p *product.Product) { p.TradeInEnabled = false }

func (f *fixture) product(t *testing.T, owner user.Actor, opts ...productOpt) *product.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &product.Product{
		ID:             uuid.New(),
		OwnerID:        owner.UserID,
		Name:           "item",
		Price:          decimal.NewFromInt(100000),
		Verification:   product.VerificationApproved,
		Availability:   product.AvailabilityAvailable,
		BarterEnabled:  true,
		TradeInEnabled: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) availability(t *testing.T, id uuid.UUID) product.Availability {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Availability
}

func TestService_NotifiesCounterpartyAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bobby")
	x, y := f.product(t, alice), f.product(t, bob)

	b, err := f.svc.CreateBarter(ctx, alice, CreateBarterInput{RequesterProductID: x.ID, ReceiverProductID: y.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, f.publisher.count(bob.UserID))
	assert.Equal(t, 0, f.publisher.count(alice.UserID))

	_, err = f.svc.AcceptBarter(ctx, bob, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.publisher.count(alice.UserID))

	_, err = f.svc.AcceptBarter(ctx, alice, b.ID)
	require.ErrorIs(t, err, domainExchange.ErrUnauthorized)

	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, audit.EntityBarter, f.audit.entries[1].EntityType)
	assert.Equal(t, audit.ActionAccept, f.audit.entries[1].Action)

	require.Len(t, f.recorder.outcomes, 3)
	assert.False(t, f.recorder.outcomes[2].ok)
}

func TestService_GetRequiresParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, eve := f.user(t, "alice"), f.user(t, "bobby"), f.user(t, "evelyn")
	p := f.product(t, bob)

	pu, err := f.svc.CreatePurchase(ctx, alice, p.ID)
	require.NoError(t, err)

	_, err = f.svc.GetPurchase(ctx, eve, pu.ID)
	assert.ErrorIs(t, err, domainExchange.ErrUnauthorized)

	admin := eve
	admin.Role = user.RoleAdmin
	got, err := f.svc.GetPurchase(ctx, admin, pu.ID)
	require.NoError(t, err)
	assert.Equal(t, pu.ID, got.ID)

	_, err = f.svc.GetPurchase(ctx, alice, uuid.New())
	assert.ErrorIs(t, err, domainExchange.ErrNotFound)

	mine, err := f.svc.ListPurchases(ctx, bob, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].Buyer.Username)
	assert.Equal(t, "bobby", mine[0].Seller.Username)

	none, err := f.svc.ListPurchases(ctx, eve, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
