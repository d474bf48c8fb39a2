package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
)

const auditColumns = `id, audit_id, entity_type, entity_id, action, actor, actor_role, old_values, new_values,
	reason, risk_level, signature, request_id, created_at`

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	q querier
}

func (r *AuditRepository) Create(ctx context.Context, entry *audit.AuditLog) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor, actor_role, old_values, new_values, reason, risk_level, signature, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`, entry.AuditID, entry.EntityType, entry.EntityID, entry.Action, entry.Actor, entry.ActorRole, entry.OldValues,
		entry.NewValues, entry.Reason, entry.RiskLevel, entry.Signature, entry.RequestID, entry.CreatedAt).Scan(&entry.ID)
}

func (r *AuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	return scanAudit(r.q.QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE audit_id=$1`, auditID))
}

// Query pages newest first on (created_at, id).
func (r *AuditRepository) Query(ctx context.Context, filter audit.QueryFilter, cursor *audit.Cursor, limit int) ([]*audit.AuditLog, *audit.Cursor, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	args := []any{}
	idx := 1
	if filter.EntityType != nil {
		query += addWhere(query) + " entity_type=$" + itoa(idx)
		args = append(args, *filter.EntityType)
		idx++
	}
	if filter.EntityID != nil {
		query += addWhere(query) + " entity_id=$" + itoa(idx)
		args = append(args, *filter.EntityID)
		idx++
	}
	if filter.Action != nil {
		query += addWhere(query) + " action=$" + itoa(idx)
		args = append(args, *filter.Action)
		idx++
	}
	if filter.Actor != nil {
		query += addWhere(query) + " actor=$" + itoa(idx)
		args = append(args, *filter.Actor)
		idx++
	}
	if filter.StartTime != nil {
		query += addWhere(query) + " created_at >= $" + itoa(idx)
		args = append(args, *filter.StartTime)
		idx++
	}
	if filter.EndTime != nil {
		query += addWhere(query) + " created_at <= $" + itoa(idx)
		args = append(args, *filter.EndTime)
		idx++
	}
	if cursor != nil {
		query += addWhere(query) + " (created_at, id) < ($" + itoa(idx) + ", $" + itoa(idx+1) + ")"
		args = append(args, cursor.CreatedAt, cursor.ID)
		idx += 2
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + itoa(idx)
	args = append(args, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	logs, err := collect(rows, scanAudit)
	if err != nil {
		return nil, nil, err
	}

	var next *audit.Cursor
	if limit > 0 && len(logs) == limit {
		last := logs[len(logs)-1]
		next = &audit.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return logs, next, nil
}

func scanAudit(row pgx.Row) (*audit.AuditLog, error) {
	var log audit.AuditLog
	if err := row.Scan(&log.ID, &log.AuditID, &log.EntityType, &log.EntityID, &log.Action, &log.Actor, &log.ActorRole,
		&log.OldValues, &log.NewValues, &log.Reason, &log.RiskLevel, &log.Signature, &log.RequestID, &log.CreatedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
