package repository

import (
	"context"
	"time"

	"hall-booking/internal/data/entity"

	"github.com/google/uuid"
)

// SettlementStore is everything the settlement state machine reads and writes.
//
// Transitions out of pending are compare-and-swap: they are conditioned on
// booking_status = 'pending' and report "no longer pending" as a nil result,
// never as an error, so a caller that lost a race can take the idempotent path.
type SettlementStore interface {
	FindBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindBookingContext(ctx context.Context, id uuid.UUID) (*entity.BookingContext, error)

	ConfirmPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FailPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	ReleaseSlot(ctx context.Context, slotID uuid.UUID) error

	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)
	CancelPending(ctx context.Context, ids []uuid.UUID) ([]entity.ExpiredBooking, error)
	ReleaseSlots(ctx context.Context, slotIDs []uuid.UUID) (int64, error)
}

type settlementStore struct {
	booking BookingRepository
	slot    SlotRepository
	payment PaymentRepository
}

func NewSettlementStore(booking BookingRepository, slot SlotRepository, payment PaymentRepository) SettlementStore {
	return &settlementStore{
		booking: booking,
		slot:    slot,
		payment: payment,
	}
}

func (s *settlementStore) FindBooking(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return s.booking.FindByID(ctx, id)
}

func (s *settlementStore) FindBookingContext(ctx context.Context, id uuid.UUID) (*entity.BookingContext, error) {
	return s.booking.FindContext(ctx, id)
}

func (s *settlementStore) ConfirmPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return s.booking.ConfirmIfPending(ctx, id)
}

func (s *settlementStore) FailPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return s.booking.FailIfPending(ctx, id)
}

func (s *settlementStore) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	return s.payment.Create(ctx, payment)
}

func (s *settlementStore) ReleaseSlot(ctx context.Context, slotID uuid.UUID) error {
	return s.slot.Release(ctx, slotID)
}

func (s *settlementStore) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	return s.booking.FindExpiredPending(ctx, cutoff)
}

func (s *settlementStore) CancelPending(ctx context.Context, ids []uuid.UUID) ([]entity.ExpiredBooking, error) {
	return s.booking.CancelIfPending(ctx, ids)
}

func (s *settlementStore) ReleaseSlots(ctx context.Context, slotIDs []uuid.UUID) (int64, error) {
	return s.slot.ReleaseMany(ctx, slotIDs)
}
