package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hall-booking/internal/data/entity"
	"hall-booking/internal/data/repository"
	"hall-booking/pkg/signature"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeAlreadyConfirmed Outcome = "already_confirmed"
	// OutcomeAlreadySettled means a valid payment arrived after the booking
	// had already failed or been cancelled.
	OutcomeAlreadySettled Outcome = "already_settled"
)

type ConfirmCommand struct {
	BookingID         uuid.UUID
	ProviderPaymentID string
	ProviderOrderID   string
	Signature         string
}

type ConfirmResult struct {
	Outcome       Outcome              `json:"-"`
	BookingID     uuid.UUID            `json:"booking_id"`
	BookingStatus entity.BookingStatus `json:"booking_status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
}

type ExpireResult struct {
	Expired       int         `json:"expired"`
	BookingIDs    []uuid.UUID `json:"booking_ids"`
	SlotsReleased int64       `json:"slots_released"`
}

// NotificationDispatcher delivers one push notification. Implementations must
// honour ctx's deadline.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n entity.Notification) error
}

type SettlementService interface {
	// Confirm settles a payment callback for a pending booking.
	Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error)
	// Expire cancels bookings still pending maxAge after creation and frees
	// their slots. On a partial failure both the result and the error are set.
	Expire(ctx context.Context, now time.Time, maxAge time.Duration) (*ExpireResult, error)
	// SkipPayment confirms a booking without any payment evidence.
	SkipPayment(ctx context.Context, bookingID uuid.UUID) (*ConfirmResult, error)
	// Drain blocks until in-flight notifications finish or ctx is done.
	Drain(ctx context.Context) error
}

type SettlementOptions struct {
	PaymentSecret string
	AllowSkip     bool
	NotifyTimeout time.Duration
}

type settlementService struct {
	store      repository.SettlementStore
	dispatcher NotificationDispatcher
	opts       SettlementOptions
	log        *zap.Logger
	now        func() time.Time
	inflight   sync.WaitGroup
}

func NewSettlementService(store repository.SettlementStore, dispatcher NotificationDispatcher, opts SettlementOptions, log *zap.Logger) SettlementService {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	return &settlementService{
		store:      store,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log.With(zap.String("service", "settlement")),
		now:        time.Now,
	}
}

func (s *settlementService) Confirm(ctx context.Context, cmd ConfirmCommand) (*ConfirmResult, error) {
	const op = "confirm payment"

	if s.opts.PaymentSecret == "" {
		s.log.Error("Payment key secret is not configured")
		return nil, newError(KindConfiguration, op, "Server configuration error", nil)
	}

	valid, err := signature.Verify(cmd.ProviderOrderID, cmd.ProviderPaymentID, cmd.Signature, s.opts.PaymentSecret)
	if err != nil {
		s.log.Warn("Malformed payment signature", zap.String("booking_id", cmd.BookingID.String()))
		return nil, newError(KindValidation, op, "Malformed payment signature", err)
	}
	if !valid {
		s.rejectPayment(ctx, cmd)
		return nil, newError(KindVerification, op, "Invalid payment signature", nil)
	}

	booking, err := s.store.FindBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, newError(KindStoreFailure, op, "Failed to load booking", err)
	}
	if booking == nil {
		return nil, newError(KindNotFound, op, "Booking not found", nil)
	}

	if booking.BookingStatus == entity.BookingStatusConfirmed {
		s.log.Info("Booking already confirmed", zap.String("booking_id", booking.ID.String()))
		return settledResult(booking), nil
	}

	confirmed, err := s.store.ConfirmPending(ctx, booking.ID)
	if err != nil {
		s.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return nil, newError(KindStoreFailure, op, "Failed to update booking status", err)
	}
	if confirmed == nil {
		return s.afterLostRace(ctx, op, cmd)
	}

	result := &ConfirmResult{
		Outcome:       OutcomeConfirmed,
		BookingID:     confirmed.ID,
		BookingStatus: confirmed.BookingStatus,
		PaymentStatus: confirmed.PaymentStatus,
	}

	payment := &entity.Payment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		BookingID:         booking.ID,
		ProviderPaymentID: cmd.ProviderPaymentID,
		ProviderOrderID:   cmd.ProviderOrderID,
		Status:            entity.PaymentStatusCompleted,
		Amount:            booking.TotalPrice,
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		s.log.Error("Booking confirmed without a payment record",
			zap.Error(err),
			zap.Bool("alert", true),
			zap.String("booking_id", booking.ID.String()),
			zap.String("provider_payment_id", cmd.ProviderPaymentID),
			zap.String("provider_order_id", cmd.ProviderOrderID),
			zap.Float64("amount", booking.TotalPrice),
		)
		return result, newError(KindPartialFailure, op, "Booking confirmed but payment record could not be saved", err)
	}

	s.log.Info("Payment verified",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider_payment_id", cmd.ProviderPaymentID),
		zap.Float64("amount", payment.Amount),
	)

	s.notifyConfirmed(ctx, booking.ID)

	return result, nil
}

// rejectPayment fails a pending booking whose callback did not verify and
// frees its slot. A booking that already left pending is left untouched.
func (s *settlementService) rejectPayment(ctx context.Context, cmd ConfirmCommand) {
	log := s.log.With(zap.String("booking_id", cmd.BookingID.String()))

	failed, err := s.store.FailPending(ctx, cmd.BookingID)
	if err != nil {
		log.Error("Failed to mark booking failed after signature mismatch", zap.Error(err))
		return
	}
	if failed == nil {
		log.Warn("Rejected payment signature for a booking that is not pending")
		return
	}

	log.Warn("Payment signature mismatch, booking failed")

	if err := s.store.ReleaseSlot(ctx, failed.SlotID); err != nil {
		log.Error("Failed to release slot after signature mismatch",
			zap.Error(err),
			zap.String("slot_id", failed.SlotID.String()),
		)
	}
}

// afterLostRace handles a conditional confirm that matched no row: another
// settlement moved the booking first.
func (s *settlementService) afterLostRace(ctx context.Context, op string, cmd ConfirmCommand) (*ConfirmResult, error) {
	current, err := s.store.FindBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, newError(KindStoreFailure, op, "Failed to load booking", err)
	}
	if current == nil {
		return nil, newError(KindNotFound, op, "Booking not found", nil)
	}

	result := settledResult(current)
	if result.Outcome == OutcomeAlreadySettled {
		s.log.Warn("Verified payment for a booking that was already settled",
			zap.Bool("alert", true),
			zap.String("booking_id", current.ID.String()),
			zap.String("booking_status", string(current.BookingStatus)),
			zap.String("provider_payment_id", cmd.ProviderPaymentID),
		)
	}
	return result, nil
}

func settledResult(b *entity.Booking) *ConfirmResult {
	outcome := OutcomeAlreadySettled
	if b.BookingStatus == entity.BookingStatusConfirmed {
		outcome = OutcomeAlreadyConfirmed
	}
	return &ConfirmResult{
		Outcome:       outcome,
		BookingID:     b.ID,
		BookingStatus: b.BookingStatus,
		PaymentStatus: b.PaymentStatus,
	}
}

func (s *settlementService) Expire(ctx context.Context, now time.Time, maxAge time.Duration) (*ExpireResult, error) {
	const op = "expire bookings"

	cutoff := now.Add(-maxAge)
	stale, err := s.store.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return nil, newError(KindStoreFailure, op, "Failed to query expired bookings", err)
	}

	if len(stale) == 0 {
		s.log.Debug("No expired bookings found", zap.Time("cutoff", cutoff))
		return &ExpireResult{BookingIDs: []uuid.UUID{}}, nil
	}

	ids := make([]uuid.UUID, len(stale))
	for i, b := range stale {
		ids[i] = b.ID
	}

	cancelled, err := s.store.CancelPending(ctx, ids)
	if err != nil {
		s.log.Error("Failed to cancel expired bookings",
			zap.Error(err),
			zap.Int("candidates", len(ids)),
		)
		return nil, newError(KindStoreFailure, op, "Failed to update expired bookings", err)
	}

	result := &ExpireResult{
		Expired:    len(cancelled),
		BookingIDs: make([]uuid.UUID, 0, len(cancelled)),
	}
	if len(cancelled) == 0 {
		return result, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(cancelled))
	slotIDs := make([]uuid.UUID, 0, len(cancelled))
	for _, c := range cancelled {
		result.BookingIDs = append(result.BookingIDs, c.BookingID)
		if _, ok := seen[c.SlotID]; !ok {
			seen[c.SlotID] = struct{}{}
			slotIDs = append(slotIDs, c.SlotID)
		}
	}

	released, err := s.store.ReleaseSlots(ctx, slotIDs)
	if err != nil {
		s.log.Error("Bookings cancelled but slots were not released",
			zap.Error(err),
			zap.Bool("alert", true),
			zap.Int("expired", result.Expired),
			zap.Strings("booking_ids", uuidStrings(result.BookingIDs)),
			zap.Strings("slot_ids", uuidStrings(slotIDs)),
		)
		return result, newError(KindPartialFailure, op, "Bookings cancelled but failed to release some slots", err)
	}
	result.SlotsReleased = released

	s.log.Info(fmt.Sprintf("Expired %d booking(s)", result.Expired),
		zap.Strings("booking_ids", uuidStrings(result.BookingIDs)),
		zap.Int64("slots_released", released),
	)

	return result, nil
}

func (s *settlementService) SkipPayment(ctx context.Context, bookingID uuid.UUID) (*ConfirmResult, error) {
	const op = "skip payment"

	if !s.opts.AllowSkip {
		return nil, newError(KindDisabled, op, "Payment bypass is disabled", nil)
	}

	booking, err := s.store.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, newError(KindStoreFailure, op, "Failed to load booking", err)
	}
	if booking == nil {
		return nil, newError(KindNotFound, op, "Booking not found", nil)
	}
	if booking.BookingStatus != entity.BookingStatusPending {
		return settledResult(booking), nil
	}

	confirmed, err := s.store.ConfirmPending(ctx, bookingID)
	if err != nil {
		return nil, newError(KindStoreFailure, op, "Failed to update booking status", err)
	}
	if confirmed == nil {
		return s.afterLostRace(ctx, op, ConfirmCommand{BookingID: bookingID})
	}

	s.log.Warn("Booking confirmed without payment verification",
		zap.String("booking_id", bookingID.String()),
	)

	return &ConfirmResult{
		Outcome:       OutcomeConfirmed,
		BookingID:     confirmed.ID,
		BookingStatus: confirmed.BookingStatus,
		PaymentStatus: confirmed.PaymentStatus,
	}, nil
}

// notifyConfirmed looks up the booking's context and fans out the user and
// owner notifications in the background.
func (s *settlementService) notifyConfirmed(ctx context.Context, bookingID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}

	bc, err := s.store.FindBookingContext(ctx, bookingID)
	if err != nil {
		s.log.Warn("Skipping notifications, booking context lookup failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return
	}
	if bc == nil {
		return
	}

	for _, n := range confirmationNotifications(bc) {
		s.dispatchAsync(n)
	}
}

func confirmationNotifications(bc *entity.BookingContext) []entity.Notification {
	hall := "Hall"
	if bc.HallName != nil && *bc.HallName != "" {
		hall = *bc.HallName
	}
	var date, at string
	if bc.SlotDate != nil {
		date = *bc.SlotDate
	}
	if bc.SlotTime != nil {
		at = *bc.SlotTime
	}
	bookingID := bc.BookingID.String()

	out := []entity.Notification{{
		UserID: bc.UserID,
		Title:  "Booking Confirmed",
		Body:   fmt.Sprintf("Your booking at %s on %s at %s is confirmed!", hall, date, at),
		Data: map[string]string{
			"booking_id": bookingID,
			"type":       string(entity.NotificationBookingConfirmed),
		},
	}}

	if bc.OwnerID != nil && *bc.OwnerID != uuid.Nil {
		out = append(out, entity.Notification{
			UserID: *bc.OwnerID,
			Title:  "New Booking",
			Body:   fmt.Sprintf("A new booking has been confirmed at %s on %s at %s.", hall, date, at),
			Data: map[string]string{
				"booking_id": bookingID,
				"type":       string(entity.NotificationNewBooking),
			},
		})
	}

	return out
}

func (s *settlementService) dispatchAsync(n entity.Notification) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Notification dispatch panicked",
					zap.Any("panic", r),
					zap.String("user_id", n.UserID.String()),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()

		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			s.log.Warn("Failed to send notification",
				zap.Error(err),
				zap.String("user_id", n.UserID.String()),
				zap.String("title", n.Title),
			)
			return
		}
		s.log.Debug("Notification sent", zap.String("user_id", n.UserID.String()))
	}()
}

func (s *settlementService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
