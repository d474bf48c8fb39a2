package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	domain "github.com/midas-vault/midas-vault/internal/domain/user"
)

var (
	ErrAdminOnly     = fmt.Errorf("%w: admin role required", domainExchange.ErrUnauthorized)
	ErrWrongPassword = fmt.Errorf("%w: current password is incorrect", domainExchange.ErrPrecondition)
	ErrSelfDemotion  = fmt.Errorf("%w: admins cannot change their own role or status", domainExchange.ErrPrecondition)
)

// AuditLogger records account changes.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Service handles user management.
type Service struct {
	repo     domain.Repository
	auditSvc AuditLogger
	logger   zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, auditSvc AuditLogger, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// UpdateInput defines admin changes to an account.
type UpdateInput struct {
	Role   *domain.Role   `json:"role"`
	Status *domain.Status `json:"status"`
}

// Profile returns the public face of any user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*domain.Party, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domainExchange.NotFound("user")
	}
	party := u.Party()
	return &party, nil
}

func (s *Service) ListUsers(ctx context.Context, actor domain.Actor, filter domain.Filter, limit, offset int) ([]*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// UpdateUser changes role or status. Admin only.
func (s *Service) UpdateUser(ctx context.Context, actor domain.Actor, userID uuid.UUID, input UpdateInput) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if userID == actor.UserID {
		return nil, ErrSelfDemotion
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domainExchange.NotFound("user")
	}
	old := map[string]string{"role": string(u.Role), "status": string(u.Status)}

	if input.Role != nil {
		if err := domain.ValidateRole(*input.Role); err != nil {
			return nil, domainExchange.Invalid(err)
		}
		u.Role = *input.Role
	}
	if input.Status != nil {
		if err := domain.ValidateStatus(*input.Status); err != nil {
			return nil, domainExchange.Invalid(err)
		}
		u.Status = *input.Status
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("role", string(u.Role)).
		Str("status", string(u.Status)).
		Str("actor", actor.String()).
		Msg("user updated")
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, &audit.AuditEntry{
			EntityType: audit.EntityUser,
			EntityID:   u.ID.String(),
			Action:     audit.ActionUpdate,
			Actor:      actor.String(),
			ActorRole:  string(actor.Role),
			OldValues:  old,
			NewValues:  map[string]string{"role": string(u.Role), "status": string(u.Status)},
			RiskLevel:  audit.RiskLevelHigh,
		})
	}
	return u, nil
}

// ChangePassword lets the caller rotate their own password.
func (s *Service) ChangePassword(ctx context.Context, actor domain.Actor, current, next string) error {
	u, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return domainExchange.NotFound("user")
	}
	if !domain.VerifyPassword(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if err := domain.ValidatePassword(next, u.Username); err != nil {
		return domainExchange.Invalid(err)
	}
	hash, err := domain.HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, u)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
