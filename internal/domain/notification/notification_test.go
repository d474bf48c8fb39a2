package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSSEClient(t *testing.T) {
	client := NewSSEClient("client-1", "user123")

	require.NotNil(t, client)
	assert.Equal(t, "client-1", client.ClientID)
	assert.Equal(t, "user123", client.UserID)
	assert.Equal(t, 100, cap(client.MessageChan))
	assert.False(t, client.ConnectedAt.IsZero())

	client.Close()
	_, open := <-client.MessageChan
	assert.False(t, open)
}

func TestNewSSEMessage(t *testing.T) {
	data := json.RawMessage(`{"key": "value"}`)
	msg := NewSSEMessage(EventExchangeUpdated, data)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, EventExchangeUpdated, msg.Event)
	assert.Equal(t, data, msg.Data)
	assert.False(t, msg.Timestamp.IsZero())

	other := NewSSEMessage(EventExchangeUpdated, data)
	assert.NotEqual(t, msg.ID, other.ID)
}

func TestNewJSONMessage(t *testing.T) {
	id := uuid.New()
	actor := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	msg, err := NewJSONMessage(EventExchangeUpdated, ExchangeEvent{
		Kind:      "BARTER",
		ID:        id,
		Status:    "accepted",
		Previous:  "pending",
		Actor:     actor,
		Timestamp: now,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "BARTER", decoded["kind"])
	assert.Equal(t, id.String(), decoded["id"])
	assert.Equal(t, "accepted", decoded["status"])
	assert.Equal(t, "pending", decoded["previous"])
}
