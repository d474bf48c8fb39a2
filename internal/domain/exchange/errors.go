package exchange

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the exchange engine wraps exactly one of these.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrStateConflict = errors.New("state conflict")
	ErrPrecondition  = errors.New("precondition failed")
	ErrNotFound      = errors.New("not found")
	ErrDeleteBlocked = errors.New("delete blocked by history")
	ErrValidation    = errors.New("validation failed")
)

// Creation preconditions, in the order they are checked.
var (
	ErrNotOwner             = fmt.Errorf("%w: caller does not own the offered product", ErrPrecondition)
	ErrSelfDealing          = fmt.Errorf("%w: cannot exchange with yourself", ErrPrecondition)
	ErrBarterDisabled       = fmt.Errorf("%w: product does not accept barter offers", ErrPrecondition)
	ErrTradeInDisabled      = fmt.Errorf("%w: product does not accept trade-in offers", ErrPrecondition)
	ErrNotVerified          = fmt.Errorf("%w: product is not verified", ErrPrecondition)
	ErrNotAvailable         = fmt.Errorf("%w: product is not available", ErrPrecondition)
	ErrActiveExchangeExists = fmt.Errorf("%w: an active exchange already links these products", ErrPrecondition)
)

// Transition failures.
var (
	ErrNotParty          = fmt.Errorf("%w: caller is not a party to this exchange", ErrUnauthorized)
	ErrWrongParty        = fmt.Errorf("%w: caller may not perform this action", ErrUnauthorized)
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed from current status", ErrStateConflict)
	ErrAlreadyConfirmed  = fmt.Errorf("%w: already confirmed", ErrStateConflict)
	ErrProductHeld       = fmt.Errorf("%w: product is held by another exchange", ErrStateConflict)
	ErrConcurrentUpdate  = fmt.Errorf("%w: concurrent update, re-fetch and retry", ErrStateConflict)
)

// TransitionError names the status that refused a transition.
func TransitionError(op, status string) error {
	return fmt.Errorf("%w (%s from %s)", ErrInvalidTransition, op, status)
}

// NotFound reports a missing record of the given kind.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Invalid marks err as a rejected input so callers can map it to a client error.
func Invalid(err error) error {
	if err == nil || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
