package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntityType is the kind of record an audit entry describes.
type EntityType string

const (
	EntityProduct  EntityType = "PRODUCT"
	EntityPurchase EntityType = "PURCHASE"
	EntityBarter   EntityType = "BARTER"
	EntityTradeIn  EntityType = "TRADE_IN"
	EntityReview   EntityType = "REVIEW"
	EntityUser     EntityType = "USER"
)

// Action is what happened to the entity.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionAccept   Action = "ACCEPT"
	ActionReject   Action = "REJECT"
	ActionConfirm  Action = "CONFIRM"
	ActionComplete Action = "COMPLETE"
	ActionCancel   Action = "CANCEL"
	ActionPay      Action = "PAY"
	ActionApprove  Action = "APPROVE"
	ActionResubmit Action = "RESUBMIT"
	ActionPurge    Action = "PURGE"
	ActionPromote  Action = "PROMOTE"
)

// RiskLevel ranks how closely an entry should be watched.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

var ErrEntityRequired = errors.New("entity type and id are required")

// AuditEntry is the input to the audit service.
type AuditEntry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRole  string
	OldValues  any
	NewValues  any
	Reason     string
	RiskLevel  RiskLevel
	RequestID  string
}

// AuditLog is a persisted, optionally signed audit record.
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"audit_id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	ActorRole  string          `json:"actor_role,omitempty"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"risk_level"`
	Signature  []byte          `json:"signature,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAuditLog converts an entry into a log record, marshalling value snapshots.
func NewAuditLog(entry *AuditEntry) (*AuditLog, error) {
	if entry.EntityType == "" || entry.EntityID == "" {
		return nil, ErrEntityRequired
	}
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      entry.Actor,
		ActorRole:  entry.ActorRole,
		Reason:     entry.Reason,
		RiskLevel:  entry.RiskLevel,
		RequestID:  entry.RequestID,
		CreatedAt:  time.Now().UTC(),
	}
	if log.RiskLevel == "" {
		log.RiskLevel = RiskLevelLow
	}
	var err error
	if log.OldValues, err = marshalValues(entry.OldValues); err != nil {
		return nil, err
	}
	if log.NewValues, err = marshalValues(entry.NewValues); err != nil {
		return nil, err
	}
	return log, nil
}

func marshalValues(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// QueryFilter narrows an audit query.
type QueryFilter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
	StartTime  *time.Time
	EndTime    *time.Time
}

// Cursor is a keyset pagination position.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

type requestIDKey struct{}

// WithRequestID tags ctx so audit entries written under it carry the id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id set by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
