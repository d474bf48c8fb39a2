package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/notification"
	"github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// AuditLogger records audit entries without blocking the caller.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Recorder counts transition outcomes.
type Recorder interface {
	Transition(kind domainExchange.Kind, op string, err error)
}

// Repositories are the read-side views used outside transactions.
type Repositories struct {
	Products  product.Repository
	Users     user.Repository
	Purchases purchase.Repository
	Barters   barter.Repository
	TradeIns  tradein.Repository
}

// Service is the exchange engine: three state machines over shared product availability.
type Service struct {
	store     ledger.Store
	repos     Repositories
	auditSvc  AuditLogger
	publisher notification.Publisher
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the exchange engine. auditSvc, publisher and recorder may be nil.
func NewService(
	store ledger.Store,
	repos Repositories,
	auditSvc AuditLogger,
	publisher notification.Publisher,
	recorder Recorder,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		repos:     repos,
		auditSvc:  auditSvc,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger.With().Str("service", "exchange").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// transition carries what happened so that logging, audit, metrics and
// notification all describe the same event.
type transition struct {
	kind         domainExchange.Kind
	id           uuid.UUID
	op           string
	action       audit.Action
	from         string
	to           string
	counterparty uuid.UUID
}

// observe runs after every engine operation, successful or not.
func (s *Service) observe(ctx context.Context, actor user.Actor, t transition, err error) {
	if s.recorder != nil {
		s.recorder.Transition(t.kind, t.op, err)
	}

	if err != nil {
		ev := s.logger.Debug()
		if !isDomainError(err) {
			ev = s.logger.Error()
		}
		ev.Err(err).
			Str("kind", string(t.kind)).
			Str("op", t.op).
			Str("actor", actor.String()).
			Msg("exchange operation refused")
		return
	}

	s.logger.Info().
		Str("kind", string(t.kind)).
		Str(idField(t.kind), t.id.String()).
		Str("op", t.op).
		Str("actor", actor.String()).
		Str("from", t.from).
		Str("to", t.to).
		Msg("exchange transition")

	if s.auditSvc != nil {
		entry := &audit.AuditEntry{
			EntityType: audit.EntityType(t.kind),
			EntityID:   t.id.String(),
			Action:     t.action,
			Actor:      actor.String(),
			ActorRole:  string(actor.Role),
			NewValues:  map[string]string{"status": t.to},
			RiskLevel:  audit.RiskLevelLow,
		}
		if t.from != "" {
			entry.OldValues = map[string]string{"status": t.from}
		}
		if t.to == "completed" {
			entry.RiskLevel = audit.RiskLevelMedium
		}
		s.auditSvc.Log(ctx, entry)
	}

	s.notify(actor, t)
}

func (s *Service) notify(actor user.Actor, t transition) {
	if s.publisher == nil || t.counterparty == uuid.Nil {
		return
	}
	event := notification.EventExchangeUpdated
	if t.from == "" {
		event = notification.EventExchangeCreated
	}
	msg, err := notification.NewJSONMessage(event, notification.ExchangeEvent{
		Kind:      string(t.kind),
		ID:        t.id,
		Status:    t.to,
		Previous:  t.from,
		Actor:     actor.UserID,
		Timestamp: s.now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal exchange notification")
		return
	}
	s.publisher.BroadcastToUser(t.counterparty.String(), msg)
}

func idField(kind domainExchange.Kind) string {
	switch kind {
	case domainExchange.KindPurchase:
		return "purchase_id"
	case domainExchange.KindBarter:
		return "barter_id"
	default:
		return "trade_in_id"
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domainExchange.ErrUnauthorized) ||
		errors.Is(err, domainExchange.ErrStateConflict) ||
		errors.Is(err, domainExchange.ErrPrecondition) ||
		errors.Is(err, domainExchange.ErrNotFound)
}

func otherParty(actor, a, b uuid.UUID) uuid.UUID {
	if actor == a {
		return b
	}
	return a
}
