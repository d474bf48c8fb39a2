package barter

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

func newBarter() *Barter {
	return New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "swap?", time.Now().UTC())
}

func accepted(t *testing.T) *Barter {
	t.Helper()
	b := newBarter()
	require.NoError(t, b.Accept(b.ReceiverID, time.Now().UTC()))
	return b
}

func TestBarter_AcceptReject(t *testing.T) {
	now := time.Now().UTC()

	t.Run("receiver accepts", func(t *testing.T) {
		b := newBarter()
		require.NoError(t, b.Accept(b.ReceiverID, now))
		assert.Equal(t, StatusAccepted, b.Status)
	})

	t.Run("requester cannot accept", func(t *testing.T) {
		b := newBarter()
		assert.ErrorIs(t, b.Accept(b.RequesterID, now), exchange.ErrUnauthorized)
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("receiver rejects", func(t *testing.T) {
		b := newBarter()
		require.NoError(t, b.Reject(b.ReceiverID, now))
		assert.Equal(t, StatusRejected, b.Status)
		assert.False(t, b.IsActive())
	})

	t.Run("accept twice", func(t *testing.T) {
		b := accepted(t)
		assert.ErrorIs(t, b.Accept(b.ReceiverID, now), exchange.ErrStateConflict)
	})
}

func TestBarter_DualConfirmation(t *testing.T) {
	now := time.Now().UTC()
	b := accepted(t)

	done, err := b.Confirm(b.RequesterID, now)
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, b.RequesterConfirmed)
	assert.False(t, b.ReceiverConfirmed)
	assert.Equal(t, StatusAccepted, b.Status)

	done, err = b.Confirm(b.RequesterID, now)
	assert.ErrorIs(t, err, exchange.ErrAlreadyConfirmed)
	assert.False(t, done)
	assert.Equal(t, StatusAccepted, b.Status)

	done, err = b.Confirm(b.ReceiverID, now)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, StatusCompleted, b.Status)
	assert.NotNil(t, b.CompletedAt)
}

func TestBarter_ConfirmBeforeAccept(t *testing.T) {
	b := newBarter()
	_, err := b.Confirm(b.RequesterID, time.Now().UTC())
	assert.ErrorIs(t, err, exchange.ErrStateConflict)
	assert.False(t, b.RequesterConfirmed)
}

func TestBarter_ConfirmByStranger(t *testing.T) {
	b := accepted(t)
	_, err := b.Confirm(uuid.New(), time.Now().UTC())
	assert.ErrorIs(t, err, exchange.ErrUnauthorized)
}

func TestBarter_Cancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("from pending", func(t *testing.T) {
		b := newBarter()
		from, err := b.Cancel(b.RequesterID, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, from)
		assert.Equal(t, StatusCancelled, b.Status)
		assert.False(t, exchange.BarterPolicy.ReleasesOnCancelFrom(string(from)))
	})

	t.Run("from accepted", func(t *testing.T) {
		b := accepted(t)
		from, err := b.Cancel(b.ReceiverID, now)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, from)
		assert.True(t, exchange.BarterPolicy.ReleasesOnCancelFrom(string(from)))
	})
}

func TestBarter_TerminalImmutability(t *testing.T) {
	now := time.Now().UTC()

	terminal := map[string]func(t *testing.T) *Barter{
		"rejected": func(t *testing.T) *Barter {
			b := newBarter()
			require.NoError(t, b.Reject(b.ReceiverID, now))
			return b
		},
		"cancelled": func(t *testing.T) *Barter {
			b := newBarter()
			_, err := b.Cancel(b.RequesterID, now)
			require.NoError(t, err)
			return b
		},
		"completed": func(t *testing.T) *Barter {
			b := accepted(t)
			_, err := b.Confirm(b.RequesterID, now)
			require.NoError(t, err)
			_, err = b.Confirm(b.ReceiverID, now)
			require.NoError(t, err)
			return b
		},
	}

	for name, build := range terminal {
		t.Run(name, func(t *testing.T) {
			b := build(t)
			status := b.Status

			assert.ErrorIs(t, b.Accept(b.ReceiverID, now), exchange.ErrStateConflict)
			assert.ErrorIs(t, b.Reject(b.ReceiverID, now), exchange.ErrStateConflict)
			_, err := b.Confirm(b.RequesterID, now)
			assert.ErrorIs(t, err, exchange.ErrStateConflict)
			_, err = b.Cancel(b.RequesterID, now)
			assert.ErrorIs(t, err, exchange.ErrStateConflict)
			assert.Equal(t, status, b.Status)
		})
	}
}
