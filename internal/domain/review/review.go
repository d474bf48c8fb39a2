package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

const maxCommentLength = 2000

var (
	ErrInvalidRating   = fmt.Errorf("%w: rating must be between 1 and 5", exchange.ErrPrecondition)
	ErrReferenceCount  = fmt.Errorf("%w: exactly one of purchase_id, barter_id, trade_in_id is required", exchange.ErrPrecondition)
	ErrCommentTooLong  = fmt.Errorf("%w: comment must be at most 2000 characters", exchange.ErrPrecondition)
	ErrExchangeNotDone = fmt.Errorf("%w: only completed exchanges can be reviewed", exchange.ErrStateConflict)
	ErrAlreadyReviewed = fmt.Errorf("%w: exchange already reviewed by this user", exchange.ErrStateConflict)
)

// Review is feedback left by one party of a completed exchange about the other.
type Review struct {
	ID         uuid.UUID  `json:"id"`
	ReviewerID uuid.UUID  `json:"reviewer_id"`
	RevieweeID uuid.UUID  `json:"reviewee_id"`
	PurchaseID *uuid.UUID `json:"purchase_id,omitempty"`
	BarterID   *uuid.UUID `json:"barter_id,omitempty"`
	TradeInID  *uuid.UUID `json:"trade_in_id,omitempty"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Ref identifies the exchange a review is attached to.
type Ref struct {
	Kind exchange.Kind
	ID   uuid.UUID
}

// NewRef resolves the three optional references to exactly one.
func NewRef(purchaseID, barterID, tradeInID *uuid.UUID) (Ref, error) {
	var refs []Ref
	if purchaseID != nil {
		refs = append(refs, Ref{Kind: exchange.KindPurchase, ID: *purchaseID})
	}
	if barterID != nil {
		refs = append(refs, Ref{Kind: exchange.KindBarter, ID: *barterID})
	}
	if tradeInID != nil {
		refs = append(refs, Ref{Kind: exchange.KindTradeIn, ID: *tradeInID})
	}
	if len(refs) != 1 {
		return Ref{}, ErrReferenceCount
	}
	return refs[0], nil
}

// New builds a review for ref. Rating and comment are validated here.
func New(reviewerID, revieweeID uuid.UUID, ref Ref, rating int, comment string, now time.Time) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	r := &Review{
		ID:         uuid.New(),
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
	}
	id := ref.ID
	switch ref.Kind {
	case exchange.KindPurchase:
		r.PurchaseID = &id
	case exchange.KindBarter:
		r.BarterID = &id
	case exchange.KindTradeIn:
		r.TradeInID = &id
	default:
		return nil, ErrReferenceCount
	}
	return r, nil
}

// Ref returns the exchange this review belongs to.
func (r *Review) Ref() Ref {
	ref, _ := NewRef(r.PurchaseID, r.BarterID, r.TradeInID)
	return ref
}
