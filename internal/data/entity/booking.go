package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether no settlement transition may leave this status.
func (s BookingStatus) IsTerminal() bool {
	return s != BookingStatusPending
}

type Booking struct {
	Base
	UserID        uuid.UUID     `db:"user_id"`
	HallID        uuid.UUID     `db:"hall_id"`
	SlotID        uuid.UUID     `db:"slot_id"`
	TotalPrice    float64       `db:"total_price"`
	BookingStatus BookingStatus `db:"booking_status"`
	PaymentStatus PaymentStatus `db:"payment_status"`
}

// ExpiredBooking is the (booking, slot) pair a sweep cancelled.
type ExpiredBooking struct {
	BookingID uuid.UUID `db:"id"`
	SlotID    uuid.UUID `db:"slot_id"`
}

// BookingContext is the denormalized view used to word notifications.
type BookingContext struct {
	BookingID uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	HallName  *string    `db:"hall_name"`
	OwnerID   *uuid.UUID `db:"owner_id"`
	SlotDate  *string    `db:"slot_date"`
	SlotTime  *string    `db:"slot_time"`
}
