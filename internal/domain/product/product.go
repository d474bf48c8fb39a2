package product

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerificationState represents the admin review state of a listing.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationApproved VerificationState = "approved"
	VerificationRejected VerificationState = "rejected"
)

// Availability represents whether a product can still change hands.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityReserved  Availability = "reserved"
	AvailabilitySold      Availability = "sold"
	AvailabilityBartered  Availability = "bartered"
	AvailabilityTraded    Availability = "traded"
	AvailabilityArchived  Availability = "archived"
)

var (
	ErrInvalidVerificationTransition = errors.New("invalid verification transition")
	ErrInvalidPrice                  = errors.New("price must be greater than zero")
	ErrNameRequired                  = errors.New("name is required")
	ErrInvalidTradeInValue           = errors.New("trade-in value must not be negative")
)

// Holder is the exchange record that currently owns a product's availability.
type Holder struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Product is a listed second-hand item.
type Product struct {
	ID                 uuid.UUID         `json:"id"`
	OwnerID            uuid.UUID         `json:"owner_id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Price              decimal.Decimal   `json:"price"`
	Verification       VerificationState `json:"verification_state"`
	VerificationNote   *string           `json:"verification_note,omitempty"`
	Availability       Availability      `json:"availability"`
	HeldBy             *Holder           `json:"held_by,omitempty"`
	BarterEnabled      bool              `json:"barter_enabled"`
	BarterPreferences  string            `json:"barter_preferences,omitempty"`
	TradeInEnabled     bool              `json:"trade_in_enabled"`
	TradeInValue       decimal.Decimal   `json:"trade_in_value"`
	TradeInPreferences string            `json:"trade_in_preferences,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	VerifiedAt         *time.Time        `json:"verified_at,omitempty"`
}

// IsClaimable reports whether a new exchange proposal may target the product.
func (p *Product) IsClaimable() bool {
	return p.Availability == AvailabilityAvailable && p.Verification == VerificationApproved
}

// IsFinal reports whether the product has left the marketplace for good.
func (p *Product) IsFinal() bool {
	switch p.Availability {
	case AvailabilitySold, AvailabilityBartered, AvailabilityTraded, AvailabilityArchived:
		return true
	default:
		return false
	}
}

// IsHeldBy reports whether h currently owns the product's availability.
func (p *Product) IsHeldBy(h Holder) bool {
	return p.HeldBy != nil && *p.HeldBy == h
}

// CanTransitionTo validates a verification state change.
func (p *Product) CanTransitionTo(target VerificationState) bool {
	transitions := map[VerificationState][]VerificationState{
		VerificationPending:  {VerificationApproved, VerificationRejected},
		VerificationRejected: {VerificationPending},
		VerificationApproved: {},
	}
	for _, s := range transitions[p.Verification] {
		if s == target {
			return true
		}
	}
	return false
}

// Approve marks the listing as marketplace-visible.
func (p *Product) Approve(note *string, now time.Time) error {
	if !p.CanTransitionTo(VerificationApproved) {
		return ErrInvalidVerificationTransition
	}
	p.Verification = VerificationApproved
	p.VerificationNote = note
	p.VerifiedAt = &now
	p.UpdatedAt = now
	return nil
}

// Reject refuses the listing.
func (p *Product) Reject(note *string, now time.Time) error {
	if !p.CanTransitionTo(VerificationRejected) {
		return ErrInvalidVerificationTransition
	}
	p.Verification = VerificationRejected
	p.VerificationNote = note
	p.VerifiedAt = &now
	p.UpdatedAt = now
	return nil
}

// Resubmit puts a rejected listing back in the review queue.
func (p *Product) Resubmit(now time.Time) error {
	if !p.CanTransitionTo(VerificationPending) {
		return ErrInvalidVerificationTransition
	}
	p.Verification = VerificationPending
	p.VerificationNote = nil
	p.VerifiedAt = nil
	p.UpdatedAt = now
	return nil
}

// Validate checks owner-editable fields.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.TradeInValue.IsNegative() {
		return ErrInvalidTradeInValue
	}
	return nil
}

// ValidateVerification checks a verification state value.
func ValidateVerification(v VerificationState) error {
	switch v {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return nil
	default:
		return errors.New("invalid verification state")
	}
}

// ValidateAvailability checks an availability value.
func ValidateAvailability(a Availability) error {
	switch a {
	case AvailabilityAvailable, AvailabilityReserved, AvailabilitySold,
		AvailabilityBartered, AvailabilityTraded, AvailabilityArchived:
		return nil
	default:
		return errors.New("invalid availability")
	}
}
