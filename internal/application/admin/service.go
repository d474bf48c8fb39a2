package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	auditApp "github.com/midas-vault/midas-vault/internal/application/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/domain/stats"
	"github.com/midas-vault/midas-vault/internal/domain/user"
)

const statsCacheKey = "admin:stats"

var ErrAdminOnly = fmt.Errorf("%w: admin role required", domainExchange.ErrUnauthorized)

// Cache stores serialized rollups. Get returns an error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AuditQuerier reads the audit trail.
type AuditQuerier interface {
	Query(ctx context.Context, params auditApp.QueryParams) (*auditApp.QueryResult, error)
}

// Service serves read-only admin views.
type Service struct {
	stats    stats.Repository
	audit    AuditQuerier
	cache    Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewService creates an admin service. cache may be nil.
func NewService(statsRepo stats.Repository, audit AuditQuerier, cache Cache, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		stats:    statsRepo,
		audit:    audit,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("service", "admin").Logger(),
	}
}

// Stats returns marketplace rollups, served from cache when fresh.
// Cache failures fall through to the store.
func (s *Service) Stats(ctx context.Context, actor user.Actor) (*stats.Snapshot, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey); err == nil {
			var snap stats.Snapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := s.stats.Collect(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		raw, err := json.Marshal(snap)
		if err == nil {
			err = s.cache.Set(ctx, statsCacheKey, raw, s.cacheTTL)
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache stats")
		}
	}
	return snap, nil
}

// Audit queries the audit trail.
func (s *Service) Audit(ctx context.Context, actor user.Actor, params auditApp.QueryParams) (*auditApp.QueryResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	return s.audit.Query(ctx, params)
}
