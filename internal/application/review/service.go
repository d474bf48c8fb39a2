package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/notification"
	"github.com/midas-vault/midas-vault/internal/domain/purchase"
	domain "github.com/midas-vault/midas-vault/internal/domain/review"
	"github.com/midas-vault/midas-vault/internal/domain/tradein"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// AuditLogger records created reviews.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Service lets parties of a completed exchange review each other.
type Service struct {
	repo      domain.Repository
	purchases purchase.Repository
	barters   barter.Repository
	tradeIns  tradein.Repository
	auditSvc  AuditLogger
	publisher notification.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a review service. auditSvc and publisher may be nil.
func NewService(
	repo domain.Repository,
	purchases purchase.Repository,
	barters barter.Repository,
	tradeIns tradein.Repository,
	auditSvc AuditLogger,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		purchases: purchases,
		barters:   barters,
		tradeIns:  tradeIns,
		auditSvc:  auditSvc,
		publisher: publisher,
		logger:    logger.With().Str("service", "review").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput references exactly one exchange.
type CreateInput struct {
	PurchaseID *uuid.UUID `json:"purchase_id"`
	BarterID   *uuid.UUID `json:"barter_id"`
	TradeInID  *uuid.UUID `json:"trade_in_id"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
}

// Create records the caller's review of the other party.
func (s *Service) Create(ctx context.Context, actor user.Actor, input CreateInput) (*domain.Review, error) {
	ref, err := domain.NewRef(input.PurchaseID, input.BarterID, input.TradeInID)
	if err != nil {
		return nil, err
	}
	reviewee, err := s.counterparty(ctx, actor.UserID, ref)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, actor.UserID, ref)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyReviewed
	}

	r, err := domain.New(actor.UserID, reviewee, ref, input.Rating, input.Comment, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("review_id", r.ID.String()).
		Str("exchange_kind", string(ref.Kind)).
		Str("exchange_id", ref.ID.String()).
		Int("rating", r.Rating).
		Msg("review created")

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, &audit.AuditEntry{
			EntityType: audit.EntityReview,
			EntityID:   r.ID.String(),
			Action:     audit.ActionCreate,
			Actor:      actor.String(),
			ActorRole:  string(actor.Role),
			NewValues:  r,
		})
	}
	if s.publisher != nil {
		if msg, err := notification.NewJSONMessage(notification.EventReviewReceived, r); err == nil {
			s.publisher.BroadcastToUser(reviewee.String(), msg)
		}
	}
	return r, nil
}

// ListForUser returns reviews a user has received, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Review, error) {
	return s.repo.ListByReviewee(ctx, userID, limit, offset)
}

// counterparty checks the exchange is completed and the caller took part,
// and returns the other side.
func (s *Service) counterparty(ctx context.Context, reviewer uuid.UUID, ref domain.Ref) (uuid.UUID, error) {
	var (
		done bool
		a, b uuid.UUID
	)
	switch ref.Kind {
	case domainExchange.KindPurchase:
		p, err := s.purchases.GetByID(ctx, ref.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if p == nil {
			return uuid.Nil, domainExchange.NotFound("purchase")
		}
		done, a, b = p.Status == purchase.StatusCompleted, p.BuyerID, p.SellerID
	case domainExchange.KindBarter:
		br, err := s.barters.GetByID(ctx, ref.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if br == nil {
			return uuid.Nil, domainExchange.NotFound("barter")
		}
		done, a, b = br.Status == barter.StatusCompleted, br.RequesterID, br.ReceiverID
	case domainExchange.KindTradeIn:
		t, err := s.tradeIns.GetByID(ctx, ref.ID)
		if err != nil {
			return uuid.Nil, err
		}
		if t == nil {
			return uuid.Nil, domainExchange.NotFound("trade-in")
		}
		done, a, b = t.Status == tradein.StatusCompleted, t.BuyerID, t.SellerID
	default:
		return uuid.Nil, domain.ErrReferenceCount
	}

	switch reviewer {
	case a:
		if !done {
			return uuid.Nil, domain.ErrExchangeNotDone
		}
		return b, nil
	case b:
		if !done {
			return uuid.Nil, domain.ErrExchangeNotDone
		}
		return a, nil
	default:
		return uuid.Nil, domainExchange.ErrNotParty
	}
}
