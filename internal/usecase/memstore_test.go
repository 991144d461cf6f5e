package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hall-booking/internal/data/entity"

	"github.com/google/uuid"
)

var errDB = errors.New("connection reset by peer")

// memStore is an in-memory SettlementStore whose transitions out of pending
// are conditional, like the SQL store.
type memStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	slots    map[uuid.UUID]entity.SlotStatus
	contexts map[uuid.UUID]*entity.BookingContext
	payments []*entity.Payment

	findErr       error
	confirmErr    error
	failErr       error
	paymentErr    error
	releaseErr    error
	cancelErr     error
	releaseAllErr error
	contextErr    error

	// beforeConfirm runs (unlocked) just before a conditional confirm.
	beforeConfirm func()
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[uuid.UUID]*entity.Booking{},
		slots:    map[uuid.UUID]entity.SlotStatus{},
		contexts: map[uuid.UUID]*entity.BookingContext{},
	}
}

func (m *memStore) addPending(price float64, createdAt time.Time) *entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		UserID:        uuid.New(),
		HallID:        uuid.New(),
		SlotID:        uuid.New(),
		TotalPrice:    price,
		BookingStatus: entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}
	m.bookings[b.ID] = b
	m.slots[b.SlotID] = entity.SlotStatusHeld
	cp := *b
	return &cp
}

func (m *memStore) setContext(bc *entity.BookingContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[bc.BookingID] = bc
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

func (m *memStore) slot(id uuid.UUID) entity.SlotStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id]
}

func (m *memStore) paymentsFor(id uuid.UUID) []*entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Payment
	for _, p := range m.payments {
		if p.BookingID == id {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) FindBooking(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) FindBookingContext(_ context.Context, id uuid.UUID) (*entity.BookingContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.contextErr != nil {
		return nil, m.contextErr
	}
	if bc, ok := m.contexts[id]; ok {
		return bc, nil
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &entity.BookingContext{BookingID: b.ID, UserID: b.UserID}, nil
}

func (m *memStore) transition(id uuid.UUID, bs entity.BookingStatus, ps entity.PaymentStatus) *entity.Booking {
	b, ok := m.bookings[id]
	if !ok || b.BookingStatus != entity.BookingStatusPending {
		return nil
	}
	b.BookingStatus = bs
	b.PaymentStatus = ps
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp
}

func (m *memStore) ConfirmPending(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	if m.beforeConfirm != nil {
		m.beforeConfirm()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return m.transition(id, entity.BookingStatusConfirmed, entity.PaymentStatusCompleted), nil
}

func (m *memStore) FailPending(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.transition(id, entity.BookingStatusFailed, entity.PaymentStatusFailed), nil
}

func (m *memStore) CreatePayment(_ context.Context, p *entity.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paymentErr != nil {
		return m.paymentErr
	}
	for _, existing := range m.payments {
		if existing.BookingID == p.BookingID {
			return fmt.Errorf("duplicate payment for booking %s", p.BookingID)
		}
	}
	cp := *p
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memStore) ReleaseSlot(_ context.Context, slotID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.releaseErr != nil {
		return m.releaseErr
	}
	if _, ok := m.slots[slotID]; !ok {
		return fmt.Errorf("slot %s not found", slotID)
	}
	m.slots[slotID] = entity.SlotStatusAvailable
	return nil
}

func (m *memStore) FindExpiredPending(_ context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*entity.Booking
	for _, b := range m.bookings {
		if b.BookingStatus == entity.BookingStatusPending && !b.CreatedAt.After(cutoff) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CancelPending(_ context.Context, ids []uuid.UUID) ([]entity.ExpiredBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	var out []entity.ExpiredBooking
	for _, id := range ids {
		if b := m.transition(id, entity.BookingStatusCancelled, entity.PaymentStatusFailed); b != nil {
			out = append(out, entity.ExpiredBooking{BookingID: b.ID, SlotID: b.SlotID})
		}
	}
	return out, nil
}

func (m *memStore) ReleaseSlots(_ context.Context, slotIDs []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.releaseAllErr != nil {
		return 0, m.releaseAllErr
	}
	var n int64
	for _, id := range slotIDs {
		if _, ok := m.slots[id]; ok {
			m.slots[id] = entity.SlotStatusAvailable
			n++
		}
	}
	return n, nil
}

type recordingDispatcher struct {
	mu    sync.Mutex
	sent  []entity.Notification
	err   error
	block chan struct{}
	panic bool
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, n entity.Notification) error {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if d.panic {
		panic("dispatcher exploded")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}

func (d *recordingDispatcher) notifications() []entity.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]entity.Notification(nil), d.sent...)
}
