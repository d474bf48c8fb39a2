package audit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
)

// Service handles audit log operations
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
	wg      sync.WaitGroup
}

// NewService creates a new audit service
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log creates a new audit log entry asynchronously
func (s *Service) Log(ctx context.Context, entry *audit.AuditEntry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.LogSync(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entity_type", string(entry.EntityType)).
				Str("entity_id", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// Wait blocks until pending asynchronous writes finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogSync creates a new audit log entry synchronously
func (s *Service) LogSync(ctx context.Context, entry *audit.AuditEntry) error {
	if entry.RequestID == "" {
		entry.RequestID = audit.RequestIDFrom(ctx)
	}
	auditLog, err := audit.NewAuditLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(auditLog, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		auditLog.Signature = sig
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("audit_id", auditLog.AuditID.String()).
		Str("entity_type", string(auditLog.EntityType)).
		Str("entity_id", auditLog.EntityID).
		Str("action", string(auditLog.Action)).
		Str("actor", auditLog.Actor).
		Msg("audit log created")

	if auditLog.RiskLevel == audit.RiskLevelHigh || auditLog.RiskLevel == audit.RiskLevelCritical {
		s.logger.Warn().
			Str("audit_id", auditLog.AuditID.String()).
			Str("entity_type", string(auditLog.EntityType)).
			Str("entity_id", auditLog.EntityID).
			Str("action", string(auditLog.Action)).
			Str("risk_level", string(auditLog.RiskLevel)).
			Msg("high-risk operation recorded")
	}

	return nil
}

// QueryParams represents query parameters for audit logs
type QueryParams struct {
	EntityType *string
	EntityID   *string
	Action     *string
	Actor      *string
	StartTime  *time.Time
	EndTime    *time.Time
	Cursor     *string
	Limit      int
}

// QueryResult represents the result of an audit log query
type QueryResult struct {
	Logs       []*audit.AuditLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination holds pagination information
type Pagination struct {
	Cursor  *string `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
	Count   int     `json:"count"`
}

// Query retrieves audit logs newest first.
func (s *Service) Query(ctx context.Context, params QueryParams) (*QueryResult, error) {
	if params.Limit <= 0 {
		params.Limit = defaultQueryLimit
	}
	if params.Limit > maxQueryLimit {
		params.Limit = maxQueryLimit
	}

	var cursor *audit.Cursor
	if params.Cursor != nil && *params.Cursor != "" {
		c, err := decodeCursor(*params.Cursor)
		if err != nil {
			return nil, domainExchange.Invalid(fmt.Errorf("invalid cursor: %w", err))
		}
		cursor = c
	}

	filter := audit.QueryFilter{
		EntityID:  params.EntityID,
		Actor:     params.Actor,
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
	}
	if params.EntityType != nil {
		et := audit.EntityType(*params.EntityType)
		filter.EntityType = &et
	}
	if params.Action != nil {
		a := audit.Action(*params.Action)
		filter.Action = &a
	}

	logs, nextCursor, err := s.repo.Query(ctx, filter, cursor, params.Limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query audit logs")
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	result := &QueryResult{
		Logs: logs,
		Pagination: Pagination{
			Count:   len(logs),
			HasMore: nextCursor != nil,
		},
	}
	if nextCursor != nil {
		encoded, err := encodeCursor(nextCursor)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode cursor")
		} else {
			result.Pagination.Cursor = &encoded
		}
	}
	return result, nil
}

// VerifyResult reports whether a stored entry still matches its signature.
type VerifyResult struct {
	AuditID  uuid.UUID `json:"audit_id"`
	Verified bool      `json:"verified"`
	Message  string    `json:"message"`
}

// VerifyIntegrity checks the signature of an audit log entry.
func (s *Service) VerifyIntegrity(ctx context.Context, auditID uuid.UUID) (*VerifyResult, error) {
	log, err := s.repo.GetByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	if log == nil {
		return nil, domainExchange.NotFound("audit log")
	}

	result := &VerifyResult{AuditID: auditID}
	if len(s.signKey) == 0 {
		result.Message = "audit signing is disabled"
		return result, nil
	}
	verified, err := audit.VerifyAuditLogSignature(log, s.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}
	result.Verified = verified
	if verified {
		result.Message = "audit log integrity verified"
	} else {
		result.Message = "audit log signature mismatch"
		s.logger.Warn().Str("audit_id", auditID.String()).Msg("audit log signature verification failed")
	}
	return result, nil
}

func encodeCursor(c *audit.Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (*audit.Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var c audit.Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
