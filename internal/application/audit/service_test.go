package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midas-vault/midas-vault/internal/domain/audit"
	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
)

func entry(entityID string, action audit.Action) *audit.AuditEntry {
	return &audit.AuditEntry{
		EntityType: audit.EntityBarter,
		EntityID:   entityID,
		Action:     action,
		Actor:      uuid.NewString(),
		NewValues:  map[string]string{"status": "accepted"},
	}
}

func TestService_LogAndQuery(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Audit(), zerolog.Nop(), []byte("secret"))
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, svc.LogSync(ctx, entry(id, audit.ActionCreate)))
	require.NoError(t, svc.LogSync(ctx, entry(id, audit.ActionAccept)))
	require.NoError(t, svc.LogSync(ctx, entry(id, audit.ActionConfirm)))
	require.NoError(t, svc.LogSync(ctx, entry(uuid.NewString(), audit.ActionCreate)))

	page, err := svc.Query(ctx, QueryParams{EntityID: &id, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Logs, 2)
	assert.True(t, page.Pagination.HasMore)
	require.NotNil(t, page.Pagination.Cursor)
	assert.Equal(t, audit.ActionConfirm, page.Logs[0].Action)

	rest, err := svc.Query(ctx, QueryParams{EntityID: &id, Limit: 2, Cursor: page.Pagination.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Logs, 1)
	assert.Equal(t, audit.ActionCreate, rest.Logs[0].Action)
	assert.False(t, rest.Pagination.HasMore)
}

func TestService_QueryRejectsBadCursor(t *testing.T) {
	svc := NewService(memory.NewStore().Audit(), zerolog.Nop(), nil)
	bad := "%%%"

	_, err := svc.Query(context.Background(), QueryParams{Cursor: &bad})
	assert.ErrorIs(t, err, domainExchange.ErrValidation)
}

func TestService_LogRequiresEntity(t *testing.T) {
	svc := NewService(memory.NewStore().Audit(), zerolog.Nop(), nil)

	err := svc.LogSync(context.Background(), &audit.AuditEntry{Action: audit.ActionCreate})
	assert.ErrorIs(t, err, audit.ErrEntityRequired)
}

func TestService_AsyncLogAndVerify(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Audit(), zerolog.Nop(), []byte("secret"))
	ctx := context.Background()

	svc.Log(ctx, entry(uuid.NewString(), audit.ActionPay))
	svc.Wait()

	page, err := svc.Query(ctx, QueryParams{})
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.NotEmpty(t, page.Logs[0].Signature)

	result, err := svc.VerifyIntegrity(ctx, page.Logs[0].AuditID)
	require.NoError(t, err)
	assert.True(t, result.Verified)

	other := NewService(store.Audit(), zerolog.Nop(), []byte("another key"))
	result, err = other.VerifyIntegrity(ctx, page.Logs[0].AuditID)
	require.NoError(t, err)
	assert.False(t, result.Verified)

	_, err = svc.VerifyIntegrity(ctx, uuid.New())
	assert.ErrorIs(t, err, domainExchange.ErrNotFound)
}
