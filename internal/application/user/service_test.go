package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	domain "github.com/midas-vault/midas-vault/internal/domain/user"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
)

func seedUser(t *testing.T, repo domain.Repository, username string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := domain.HashPassword("passw0rd!")
	require.NoError(t, err)
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func actorOf(u *domain.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func TestService_UpdateUser(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Users(), nil, zerolog.Nop())
	ctx := context.Background()
	admin := seedUser(t, store.Users(), "admin", domain.RoleAdmin)
	member := seedUser(t, store.Users(), "member", domain.RoleUser)

	disabled := domain.StatusDisabled
	updated, err := svc.UpdateUser(ctx, actorOf(admin), member.ID, UpdateInput{Status: &disabled})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisabled, updated.Status)

	_, err = svc.UpdateUser(ctx, actorOf(member), admin.ID, UpdateInput{Status: &disabled})
	assert.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.UpdateUser(ctx, actorOf(admin), admin.ID, UpdateInput{Status: &disabled})
	assert.ErrorIs(t, err, ErrSelfDemotion)

	bogus := domain.Role("ROOT")
	_, err = svc.UpdateUser(ctx, actorOf(admin), member.ID, UpdateInput{Role: &bogus})
	assert.ErrorIs(t, err, domainExchange.ErrValidation)

	_, err = svc.UpdateUser(ctx, actorOf(admin), uuid.New(), UpdateInput{})
	assert.ErrorIs(t, err, domainExchange.ErrNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Users(), nil, zerolog.Nop())
	ctx := context.Background()
	member := seedUser(t, store.Users(), "member", domain.RoleUser)

	err := svc.ChangePassword(ctx, actorOf(member), "wrong", "newpassw0rd")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, actorOf(member), "passw0rd!", "member123")
	assert.ErrorIs(t, err, domainExchange.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, actorOf(member), "passw0rd!", "newpassw0rd"))
	u, err := store.Users().GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, domain.VerifyPassword(u.PasswordHash, "newpassw0rd"))
}

func TestService_ProfileAndList(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Users(), nil, zerolog.Nop())
	ctx := context.Background()
	admin := seedUser(t, store.Users(), "admin", domain.RoleAdmin)
	member := seedUser(t, store.Users(), "member", domain.RoleUser)

	p, err := svc.Profile(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "member", p.Username)

	_, err = svc.ListUsers(ctx, actorOf(member), domain.Filter{}, 10, 0)
	assert.ErrorIs(t, err, ErrAdminOnly)

	all, err := svc.ListUsers(ctx, actorOf(admin), domain.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
