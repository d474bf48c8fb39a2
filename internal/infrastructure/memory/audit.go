package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	v view
}

func (r *AuditRepository) Create(ctx context.Context, log *audit.AuditLog) error {
	return r.v.write(func(st *state) error {
		st.auditSeq++
		c := *log
		c.ID = st.auditSeq
		log.ID = c.ID
		st.audits = append(st.audits, &c)
		return nil
	})
}

func (r *AuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	var out *audit.AuditLog
	err := r.v.read(func(st *state) error {
		for _, l := range st.audits {
			if l.AuditID == auditID {
				c := *l
				out = &c
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *AuditRepository) Query(ctx context.Context, filter audit.QueryFilter, cursor *audit.Cursor, limit int) ([]*audit.AuditLog, *audit.Cursor, error) {
	var matched []*audit.AuditLog
	err := r.v.read(func(st *state) error {
		for _, l := range st.audits {
			if matchesAudit(l, filter, cursor) {
				c := *l
				matched = append(matched, &c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	var next *audit.Cursor
	if limit > 0 && len(matched) == limit {
		last := matched[len(matched)-1]
		next = &audit.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return matched, next, nil
}

func matchesAudit(l *audit.AuditLog, f audit.QueryFilter, cursor *audit.Cursor) bool {
	if f.EntityType != nil && l.EntityType != *f.EntityType {
		return false
	}
	if f.EntityID != nil && l.EntityID != *f.EntityID {
		return false
	}
	if f.Action != nil && l.Action != *f.Action {
		return false
	}
	if f.Actor != nil && l.Actor != *f.Actor {
		return false
	}
	if f.StartTime != nil && l.CreatedAt.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && l.CreatedAt.After(*f.EndTime) {
		return false
	}
	if cursor != nil {
		if l.CreatedAt.After(cursor.CreatedAt) {
			return false
		}
		if l.CreatedAt.Equal(cursor.CreatedAt) && l.ID >= cursor.ID {
			return false
		}
	}
	return true
}
