package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/ledger"
	"github.com/midas-vault/midas-vault/internal/domain/notification"
	domain "github.com/midas-vault/midas-vault/internal/domain/product"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

var (
	ErrNotProductOwner = fmt.Errorf("%w: caller does not own this product", domainExchange.ErrUnauthorized)
	ErrAdminOnly       = fmt.Errorf("%w: admin role required", domainExchange.ErrUnauthorized)
	ErrProductLocked   = fmt.Errorf("%w: product is held by an exchange or no longer listed", domainExchange.ErrPrecondition)
)

// AuditLogger records registry and verification decisions.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Service owns the product registry and the verification workflow.
// It never writes availability; that belongs to the exchange engine.
// Edits and deletes run in a ledger transaction so they serialize with
// exchanges claiming the same product.
type Service struct {
	repo      domain.Repository
	store     ledger.Store
	auditSvc  AuditLogger
	publisher notification.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a product service. auditSvc and publisher may be nil.
func NewService(repo domain.Repository, store ledger.Store, auditSvc AuditLogger, publisher notification.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		auditSvc:  auditSvc,
		publisher: publisher,
		logger:    logger.With().Str("service", "product").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput defines a new listing.
type CreateInput struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	BarterEnabled      bool            `json:"barter_enabled"`
	BarterPreferences  string          `json:"barter_preferences"`
	TradeInEnabled     bool            `json:"trade_in_enabled"`
	TradeInValue       decimal.Decimal `json:"trade_in_value"`
	TradeInPreferences string          `json:"trade_in_preferences"`
}

// UpdateInput changes owner-editable fields. Nil fields are left alone.
type UpdateInput struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	BarterEnabled      *bool            `json:"barter_enabled"`
	BarterPreferences  *string          `json:"barter_preferences"`
	TradeInEnabled     *bool            `json:"trade_in_enabled"`
	TradeInValue       *decimal.Decimal `json:"trade_in_value"`
	TradeInPreferences *string          `json:"trade_in_preferences"`
}

// Create lists a product owned by the caller. New listings wait for verification.
func (s *Service) Create(ctx context.Context, actor user.Actor, input CreateInput) (*domain.Product, error) {
	now := s.now()
	p := &domain.Product{
		ID:                 uuid.New(),
		OwnerID:            actor.UserID,
		Name:               strings.TrimSpace(input.Name),
		Description:        strings.TrimSpace(input.Description),
		Price:              input.Price,
		Verification:       domain.VerificationPending,
		Availability:       domain.AvailabilityAvailable,
		BarterEnabled:      input.BarterEnabled,
		BarterPreferences:  strings.TrimSpace(input.BarterPreferences),
		TradeInEnabled:     input.TradeInEnabled,
		TradeInValue:       input.TradeInValue,
		TradeInPreferences: strings.TrimSpace(input.TradeInPreferences),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := p.Validate(); err != nil {
		return nil, domainExchange.Invalid(err)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", p.ID.String()).
		Str("owner_id", p.OwnerID.String()).
		Msg("product listed")
	s.audit(ctx, actor, p, audit.ActionCreate, nil, p, "")
	return p, nil
}

// Get returns any product by id.
func (s *Service) Get(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainExchange.NotFound("product")
	}
	return p, nil
}

// ListMarketplace returns approved products that can still change hands.
func (s *Service) ListMarketplace(ctx context.Context, search string, limit, offset int) ([]*domain.Product, error) {
	verification := domain.VerificationApproved
	availability := domain.AvailabilityAvailable
	filter := domain.Filter{Verification: &verification, Availability: &availability}
	if search = strings.TrimSpace(search); search != "" {
		filter.Search = &search
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// ListMine returns every product the caller owns, whatever its state.
func (s *Service) ListMine(ctx context.Context, actor user.Actor, limit, offset int) ([]*domain.Product, error) {
	return s.repo.List(ctx, domain.Filter{OwnerID: &actor.UserID}, limit, offset)
}

// UpdateDetails edits a listing. Products held by an exchange or gone from the
// marketplace are frozen.
func (s *Service) UpdateDetails(ctx context.Context, actor user.Actor, productID uuid.UUID, input UpdateInput) (*domain.Product, error) {
	var before, p *domain.Product

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		p, err = lockProduct(ctx, tx.Products(), productID)
		if err != nil {
			return err
		}
		if p.OwnerID != actor.UserID {
			return ErrNotProductOwner
		}
		if p.HeldBy != nil || p.IsFinal() {
			return ErrProductLocked
		}
		prev := *p
		before = &prev

		input.apply(p)
		if err := p.Validate(); err != nil {
			return domainExchange.Invalid(err)
		}
		p.UpdatedAt = s.now()
		return tx.Products().UpdateDetails(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, p, audit.ActionUpdate, before, p, "")
	return p, nil
}

func (in UpdateInput) apply(p *domain.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.BarterEnabled != nil {
		p.BarterEnabled = *in.BarterEnabled
	}
	if in.BarterPreferences != nil {
		p.BarterPreferences = strings.TrimSpace(*in.BarterPreferences)
	}
	if in.TradeInEnabled != nil {
		p.TradeInEnabled = *in.TradeInEnabled
	}
	if in.TradeInValue != nil {
		p.TradeInValue = *in.TradeInValue
	}
	if in.TradeInPreferences != nil {
		p.TradeInPreferences = strings.TrimSpace(*in.TradeInPreferences)
	}
}

// Delete removes a listing that no exchange has ever referenced.
func (s *Service) Delete(ctx context.Context, actor user.Actor, productID uuid.UUID) error {
	var p *domain.Product

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		p, err = lockProduct(ctx, tx.Products(), productID)
		if err != nil {
			return err
		}
		if p.OwnerID != actor.UserID && !actor.IsAdmin() {
			return ErrNotProductOwner
		}
		used, err := tx.Products().HasHistory(ctx, productID)
		if err != nil {
			return err
		}
		if used {
			return domainExchange.ErrDeleteBlocked
		}
		return tx.Products().Delete(ctx, productID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("actor", actor.String()).
		Msg("product deleted")
	s.audit(ctx, actor, p, audit.ActionDelete, p, nil, "")
	return nil
}

func lockProduct(ctx context.Context, pl ledger.ProductLedger, productID uuid.UUID) (*domain.Product, error) {
	p, err := pl.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainExchange.NotFound("product")
	}
	return p, nil
}

// ListPending returns the verification queue, oldest listings last.
func (s *Service) ListPending(ctx context.Context, actor user.Actor, limit, offset int) ([]*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	pending := domain.VerificationPending
	return s.repo.List(ctx, domain.Filter{Verification: &pending}, limit, offset)
}

// Approve makes a pending product visible on the marketplace.
func (s *Service) Approve(ctx context.Context, actor user.Actor, productID uuid.UUID, note *string) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return s.decide(ctx, actor, productID, audit.ActionApprove, note, func(p *domain.Product) error {
		return p.Approve(trimNote(note), s.now())
	})
}

// Reject refuses a pending product.
func (s *Service) Reject(ctx context.Context, actor user.Actor, productID uuid.UUID, note *string) (*domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return s.decide(ctx, actor, productID, audit.ActionReject, note, func(p *domain.Product) error {
		return p.Reject(trimNote(note), s.now())
	})
}

// Resubmit sends a rejected product back to the verification queue.
func (s *Service) Resubmit(ctx context.Context, actor user.Actor, productID uuid.UUID) (*domain.Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.UserID {
		return nil, ErrNotProductOwner
	}
	return s.decide(ctx, actor, productID, audit.ActionResubmit, nil, func(p *domain.Product) error {
		return p.Resubmit(s.now())
	})
}

func (s *Service) decide(ctx context.Context, actor user.Actor, productID uuid.UUID, action audit.Action, note *string, apply func(p *domain.Product) error) (*domain.Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	from := p.Verification
	if err := apply(p); err != nil {
		return nil, fmt.Errorf("%w: %s from %s", domainExchange.ErrStateConflict, strings.ToLower(string(action)), from)
	}
	if err := s.repo.UpdateVerification(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", p.ID.String()).
		Str("actor", actor.String()).
		Str("from", string(from)).
		Str("to", string(p.Verification)).
		Msg("product verification changed")

	reason := ""
	if note != nil {
		reason = *note
	}
	s.audit(ctx, actor, p, action, map[string]string{"verification_state": string(from)},
		map[string]string{"verification_state": string(p.Verification)}, reason)

	if s.publisher != nil && p.OwnerID != actor.UserID {
		msg, err := notification.NewJSONMessage(notification.EventProductVerified, map[string]any{
			"product_id":         p.ID,
			"verification_state": p.Verification,
			"note":               p.VerificationNote,
		})
		if err == nil {
			s.publisher.BroadcastToUser(p.OwnerID.String(), msg)
		}
	}
	return p, nil
}

func (s *Service) audit(ctx context.Context, actor user.Actor, p *domain.Product, action audit.Action, oldValues, newValues any, reason string) {
	if s.auditSvc == nil {
		return
	}
	entry := &audit.AuditEntry{
		EntityType: audit.EntityProduct,
		EntityID:   p.ID.String(),
		Action:     action,
		Actor:      actor.String(),
		ActorRole:  string(actor.Role),
		OldValues:  oldValues,
		NewValues:  newValues,
		Reason:     reason,
	}
	if action == audit.ActionDelete {
		entry.RiskLevel = audit.RiskLevelMedium
	}
	s.auditSvc.Log(ctx, entry)
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	n := strings.TrimSpace(*note)
	if n == "" {
		return nil
	}
	return &n
}
