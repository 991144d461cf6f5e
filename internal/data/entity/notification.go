package entity

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationNewBooking       NotificationType = "new_booking"
)

// Notification is one push message addressed to a user.
type Notification struct {
	UserID uuid.UUID         `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
