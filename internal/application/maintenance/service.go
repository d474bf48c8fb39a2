package maintenance

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/barter"
)

// DefaultRetention is how long rejected barters are kept.
const DefaultRetention = 30 * 24 * time.Hour

// AuditLogger records purge runs.
type AuditLogger interface {
	Log(ctx context.Context, entry *audit.AuditEntry)
}

// Recorder counts purged rows.
type Recorder interface {
	Purged(n int64)
}

// Reporter forwards sweep failures to error tracking.
type Reporter interface {
	CaptureError(err error, tags map[string]string)
}

// Service runs the rejected-barter purge. Products are never touched.
type Service struct {
	barters   barter.Repository
	retention time.Duration
	auditSvc  AuditLogger
	recorder  Recorder
	reporter  Reporter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a maintenance service. auditSvc, recorder and reporter may be nil.
func NewService(barters barter.Repository, retention time.Duration, auditSvc AuditLogger, recorder Recorder, reporter Reporter, logger zerolog.Logger) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		barters:   barters,
		retention: retention,
		auditSvc:  auditSvc,
		recorder:  recorder,
		reporter:  reporter,
		logger:    logger.With().Str("service", "maintenance").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PurgeRejectedBarters deletes rejected barters last updated before now minus retention.
func (s *Service) PurgeRejectedBarters(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.barters.DeleteRejectedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Time("cutoff", cutoff).Msg("rejected barter purge failed")
		if s.reporter != nil {
			s.reporter.CaptureError(err, map[string]string{"job": "barter_purge"})
		}
		return 0, err
	}
	if s.recorder != nil {
		s.recorder.Purged(n)
	}
	if n == 0 {
		s.logger.Debug().Time("cutoff", cutoff).Msg("no rejected barters to purge")
		return 0, nil
	}

	s.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("rejected barters purged")
	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, &audit.AuditEntry{
			EntityType: audit.EntityBarter,
			EntityID:   "rejected",
			Action:     audit.ActionPurge,
			Actor:      "system",
			NewValues:  map[string]string{"deleted": strconv.FormatInt(n, 10), "cutoff": cutoff.Format(time.RFC3339)},
		})
	}
	return n, nil
}

// Run purges once per interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.PurgeRejectedBarters(ctx)
		}
	}
}
