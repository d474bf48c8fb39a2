package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names pushed to connected clients.
const (
	EventExchangeCreated  = "exchange.created"
	EventExchangeUpdated  = "exchange.updated"
	EventProductVerified  = "product.verification"
	EventReviewReceived   = "review.received"
	EventConnected        = "connected"
	defaultClientCapacity = 100
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// Publisher delivers a message to every live connection of a user.
type Publisher interface {
	BroadcastToUser(userID string, message *SSEMessage)
}

// ExchangeEvent is the payload of exchange.* events.
type ExchangeEvent struct {
	Kind      string    `json:"kind"`
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Previous  string    `json:"previous,omitempty"`
	Actor     uuid.UUID `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEClient is one open event stream of an authenticated user.
type SSEClient struct {
	ClientID    string
	UserID      string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a client with a buffered outbox.
func NewSSEClient(clientID, userID string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, defaultClientCapacity),
	}
}

// Close closes the client's message channel
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Retry     *int            `json:"retry,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewJSONMessage marshals v as the message body.
func NewJSONMessage(event string, v any) (*SSEMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return NewSSEMessage(event, data), nil
}
