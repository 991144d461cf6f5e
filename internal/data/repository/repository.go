package repository

import (
	"hall-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User       UserRepository
	Booking    BookingRepository
	Slot       SlotRepository
	Payment    PaymentRepository
	Settlement SettlementStore
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	booking := NewBookingRepository(db, log)
	slot := NewSlotRepository(db, log)
	payment := NewPaymentRepository(db, log)

	return &Repository{
		User:       NewUserRepository(db, log),
		Booking:    booking,
		Slot:       slot,
		Payment:    payment,
		Settlement: NewSettlementStore(booking, slot, payment),
	}
}
