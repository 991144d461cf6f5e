package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is written once, when a booking is confirmed.
type Payment struct {
	BaseSimple
	BookingID         uuid.UUID     `db:"booking_id"`
	ProviderPaymentID string        `db:"provider_payment_id"`
	ProviderOrderID   string        `db:"provider_order_id"`
	Status            PaymentStatus `db:"status"`
	Amount            float64       `db:"amount"`
}
