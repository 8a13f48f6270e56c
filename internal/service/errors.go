package service

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields: a required input is absent. Terminal, no retry.
	ErrMissingFields = errors.New("missing required fields")

	// ErrVerificationPending: the gateway does not know a terminal status
	// yet. Not a failure; callers should poll.
	ErrVerificationPending = errors.New("transaction still processing")

	// ErrPaymentDeclined: the gateway reported a terminal decline. The user
	// may retry by initiating a new session.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrStagedOrderMissing: no staged order matches the payment session.
	// Finalization refuses to guess defaults.
	ErrStagedOrderMissing = errors.New("no staged order for payment session")

	// ErrAmountMismatch: the staged order total no longer matches the amount
	// fixed at session creation.
	ErrAmountMismatch = errors.New("staged order amount does not match payment session")

	// ErrFinalizeInFlight: a finalize/verify call for this uid is already
	// running.
	ErrFinalizeInFlight = errors.New("finalization already in progress")

	ErrSessionNotFound = errors.New("payment session not found")
)

// FinalizationError is the critical inconsistency: payment verified and
// captured, order placement failed. Staged state is preserved and the
// identifiers are carried for support recovery.
type FinalizationError struct {
	UID           string
	InvoiceNumber string
	RestaurantID  string
	Err           error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("payment captured but order placement failed (uid=%s invoice=%s): %v",
		e.UID, e.InvoiceNumber, e.Err)
}

func (e *FinalizationError) Unwrap() error {
	return e.Err
}
