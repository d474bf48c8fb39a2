package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainExchange "github.com/midas-vault/midas-vault/internal/domain/exchange"
	domainUser "github.com/midas-vault/midas-vault/internal/domain/user"
	"github.com/midas-vault/midas-vault/internal/infrastructure/memory"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(store.Users(), []byte("test-secret"), time.Hour, nil, zerolog.Nop()), store
}

func register(t *testing.T, svc *Service, username string) *domainUser.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "hunter2go",
	})
	require.NoError(t, err)
	return u
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := register(t, svc, "Alice")
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, domainUser.RoleUser, u.Role)
	assert.NotEmpty(t, u.PasswordHash)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "hunter2go"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "alicia", Email: "ALICE@example.com", Password: "hunter2go"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, RegisterInput{Username: "brandon", Email: "brandon@example.com", Password: "short"})
	assert.ErrorIs(t, err, domainExchange.ErrValidation)

	_, err = svc.Register(ctx, RegisterInput{Username: "brandon", Email: "not-an-email", Password: "hunter2go"})
	assert.ErrorIs(t, err, domainExchange.ErrValidation)
}

func TestService_LoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u := register(t, svc, "alice")

	_, err := svc.Login(ctx, "alice", "wrong-pass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "hunter2go")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, " ALICE ", "hunter2go")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	actor, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.UserID)
	assert.Equal(t, domainUser.RoleUser, actor.Role)

	_, err = svc.Authenticate(ctx, res.Token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, IsAuthError(err))

	other := NewService(svc.users, []byte("different"), time.Hour, nil, zerolog.Nop())
	_, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ExpiredToken(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "alice")

	svc.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken(u)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().UTC() }

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_DisabledUser(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	u := register(t, svc, "alice")
	res, err := svc.Login(ctx, "alice", "hunter2go")
	require.NoError(t, err)

	u.Status = domainUser.StatusDisabled
	require.NoError(t, store.Users().Update(ctx, u))

	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUserDisabled)
	_, err = svc.Login(ctx, "alice", "hunter2go")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestService_Bootstrap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	first := register(t, svc, "alice")
	second := register(t, svc, "bobby")

	promoted, err := svc.Bootstrap(ctx, domainUser.Actor{UserID: first.ID, Role: first.Role})
	require.NoError(t, err)
	assert.Equal(t, domainUser.RoleAdmin, promoted.Role)

	_, err = svc.Bootstrap(ctx, domainUser.Actor{UserID: second.ID, Role: second.Role})
	assert.ErrorIs(t, err, ErrAdminExists)

	res, err := svc.Login(ctx, "alice", "hunter2go")
	require.NoError(t, err)
	actor, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())
}
