package barter

import (
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

// Status represents barter status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Barter is a product-for-product swap that completes only after both parties confirm.
type Barter struct {
	ID                 uuid.UUID  `json:"id"`
	RequesterID        uuid.UUID  `json:"requester_id"`
	ReceiverID         uuid.UUID  `json:"receiver_id"`
	RequesterProductID uuid.UUID  `json:"requester_product_id"`
	ReceiverProductID  uuid.UUID  `json:"receiver_product_id"`
	Note               string     `json:"note"`
	Status             Status     `json:"status"`
	RequesterConfirmed bool       `json:"requester_confirmed"`
	ReceiverConfirmed  bool       `json:"receiver_confirmed"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// New builds a pending barter offer from requester to receiver.
func New(requesterID, receiverID, requesterProductID, receiverProductID uuid.UUID, note string, now time.Time) *Barter {
	return &Barter{
		ID:                 uuid.New(),
		RequesterID:        requesterID,
		ReceiverID:         receiverID,
		RequesterProductID: requesterProductID,
		ReceiverProductID:  receiverProductID,
		Note:               note,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsActive reports whether the barter is non-terminal.
func (b *Barter) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusAccepted
}

// IsParty reports whether userID is requester or receiver.
func (b *Barter) IsParty(userID uuid.UUID) bool {
	return userID == b.RequesterID || userID == b.ReceiverID
}

// ProductIDs returns both referenced products, requester side first.
func (b *Barter) ProductIDs() []uuid.UUID {
	return []uuid.UUID{b.RequesterProductID, b.ReceiverProductID}
}

// CanTransitionTo validates barter status transition.
func (b *Barter) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted:  {StatusCompleted, StatusCancelled},
		StatusRejected:  {},
		StatusCompleted: {},
		StatusCancelled: {},
	}
	for _, s := range transitions[b.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Accept moves a pending offer to accepted. Receiver only.
func (b *Barter) Accept(actor uuid.UUID, now time.Time) error {
	return b.respond(actor, StatusAccepted, "accept", now)
}

// Reject declines a pending offer. Receiver only.
func (b *Barter) Reject(actor uuid.UUID, now time.Time) error {
	return b.respond(actor, StatusRejected, "reject", now)
}

func (b *Barter) respond(actor uuid.UUID, target Status, op string, now time.Time) error {
	if actor != b.ReceiverID {
		return exchange.ErrWrongParty
	}
	if b.Status != StatusPending {
		return exchange.TransitionError(op, string(b.Status))
	}
	b.Status = target
	b.UpdatedAt = now
	return nil
}

// Confirm records the caller's completion acknowledgement. It reports true
// when this call supplied the second confirmation and the barter completed.
func (b *Barter) Confirm(actor uuid.UUID, now time.Time) (bool, error) {
	if !b.IsParty(actor) {
		return false, exchange.ErrNotParty
	}
	if b.Status != StatusAccepted {
		return false, exchange.TransitionError("confirm", string(b.Status))
	}

	flag := &b.ReceiverConfirmed
	if actor == b.RequesterID {
		flag = &b.RequesterConfirmed
	}
	if *flag {
		return false, exchange.ErrAlreadyConfirmed
	}
	*flag = true
	b.UpdatedAt = now

	if b.RequesterConfirmed && b.ReceiverConfirmed {
		b.Status = StatusCompleted
		b.CompletedAt = &now
		return true, nil
	}
	return false, nil
}

// Cancel withdraws a non-terminal barter. It returns the status cancelled from.
func (b *Barter) Cancel(actor uuid.UUID, now time.Time) (Status, error) {
	if !b.IsParty(actor) {
		return b.Status, exchange.ErrNotParty
	}
	from := b.Status
	if !b.CanTransitionTo(StatusCancelled) {
		return from, exchange.TransitionError("cancel", string(b.Status))
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now
	return from, nil
}
