package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Booking statuses. A booking starts pending and moves to exactly one of
// the terminal states.
const (
	BookingStatusPending = "pending"
	BookingStatusPaid    = "paid"
	BookingStatusFailed  = "failed"
)

// Booking is one checkout attempt, keyed by the payment session that was
// opened for it. SessionID is unique: one booking per session.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"userId"`
	EventID   string    `bun:"event_id,notnull" json:"eventId"`
	Amount    float64   `bun:"amount,notnull" json:"amount"`
	Currency  string    `bun:"currency,notnull" json:"currency"`
	Status    string    `bun:"status,notnull" json:"status"`
	SessionID string    `bun:"session_id,notnull,unique" json:"sessionId"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// ReservationResponse is returned when a checkout session is opened.
type ReservationResponse struct {
	SessionID  string `json:"sessionId"`
	PaymentURL string `json:"paymentUrl"`
}

// ConfirmationResponse is returned after a successful confirmation.
type ConfirmationResponse struct {
	BookingID string `json:"bookingId"`
}
