package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	GetByID(ctx context.Context, auditID uuid.UUID) (*AuditLog, error)
	Query(ctx context.Context, filter QueryFilter, cursor *Cursor, limit int) ([]*AuditLog, *Cursor, error)
}
