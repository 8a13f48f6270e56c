package model

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionCreated SessionStatus = "CREATED"
	// confirmation wait running; set as soon as the session is handed out
	SessionPending   SessionStatus = "PENDING"
	SessionSucceeded SessionStatus = "SUCCEEDED"
	SessionFailed    SessionStatus = "FAILED"
	SessionAbandoned SessionStatus = "ABANDONED"
	// payment captured but order placement failed; kept for support recovery
	SessionFinalizeFailed SessionStatus = "FINALIZE_FAILED"
)

// PaymentSession tracks one Valor hosted-page transaction. UID is the opaque
// identifier issued by the gateway and is the correlation key for every
// later step. SUCCEEDED/FAILED are only ever set after server-side
// verification, never from a client-reported status.
type PaymentSession struct {
	UID           string        `gorm:"primaryKey;size:64;not null"`
	InvoiceNumber string        `gorm:"size:64;uniqueIndex;not null"`
	CustomerName  string        `gorm:"size:128;not null"`
	Amount        string        `gorm:"size:32;not null"` // decimal string, fixed at creation
	RedirectURL   string        `gorm:"size:512;not null"`
	Status        SessionStatus `gorm:"size:32;index;not null"`
	RestaurantID  string        `gorm:"size:64;index;not null"`
	OrderID       string        `gorm:"size:64"` // backend order id, set on successful placement
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StagedOrder is the fully-formed order payload assembled before payment
// begins: items, address, contact info, tip, order type, schedule time. It
// must exist and match the session's invoice number before finalization may
// run, and is cleared only after successful placement or explicit
// cancellation.
type StagedOrder struct {
	ID            uint           `gorm:"primaryKey"`
	RestaurantID  string         `gorm:"size:64;uniqueIndex;not null"`
	InvoiceNumber string         `gorm:"size:64;index;not null"`
	UID           string         `gorm:"size:64;index"`
	Amount        string         `gorm:"size:32;not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type IncompleteStatus string

const (
	IncompletePending IncompleteStatus = "PENDING"
	// verified approved but the order backend rejected placement
	IncompleteCaptured IncompleteStatus = "PAYMENT_CAPTURED"
)

// IncompletePayment marks a session whose terminal outcome was never
// confirmed (browser closed, network failure). At most one exists per
// restaurant scope; a new session replaces the previous record.
type IncompletePayment struct {
	RestaurantID  string           `gorm:"primaryKey;size:64;not null"`
	OrderID       string           `gorm:"size:64"`
	UID           string           `gorm:"size:64;index;not null"`
	InvoiceNumber string           `gorm:"size:64;not null"`
	Amount        string           `gorm:"size:32;not null"`
	Status        IncompleteStatus `gorm:"size:32;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
