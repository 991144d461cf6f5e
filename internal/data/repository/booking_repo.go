package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hall-booking/internal/data/entity"
	"hall-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindContext(ctx context.Context, id uuid.UUID) (*entity.BookingContext, error)
	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error)

	// Conditional transitions. Each only touches rows still in 'pending' and
	// returns nil (no error) when the booking had already left that state.
	ConfirmIfPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FailIfPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	CancelIfPending(ctx context.Context, ids []uuid.UUID) ([]entity.ExpiredBooking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, hall_id, slot_id, total_price, booking_status, payment_status, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.HallID,
		&booking.SlotID,
		&booking.TotalPrice,
		&booking.BookingStatus,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindContext(ctx context.Context, id uuid.UUID) (*entity.BookingContext, error) {
	query := `
		SELECT b.id, b.user_id, h.name, h.owner_id, s.date::text, to_char(s.start_time, 'HH24:MI')
		FROM bookings b
		LEFT JOIN halls h ON h.id = b.hall_id
		LEFT JOIN slots s ON s.id = b.slot_id
		WHERE b.id = $1
	`

	var bc entity.BookingContext
	err := r.db.QueryRow(ctx, query, id).Scan(
		&bc.BookingID,
		&bc.UserID,
		&bc.HallName,
		&bc.OwnerID,
		&bc.SlotDate,
		&bc.SlotTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking context",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking context %s: %w", id.String(), err)
	}

	return &bc, nil
}

// FindExpiredPending returns pending bookings created at or before cutoff.
func (r *bookingRepository) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_status = 'pending' AND created_at <= $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to find expired pending bookings",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return nil, fmt.Errorf("find expired pending bookings before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) ConfirmIfPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.transitionIfPending(ctx, id, entity.BookingStatusConfirmed, entity.PaymentStatusCompleted)
}

func (r *bookingRepository) FailIfPending(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.transitionIfPending(ctx, id, entity.BookingStatusFailed, entity.PaymentStatusFailed)
}

func (r *bookingRepository) transitionIfPending(ctx context.Context, id uuid.UUID, status entity.BookingStatus, payment entity.PaymentStatus) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET booking_status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND booking_status = 'pending'
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, status, payment))
	if errors.Is(err, pgx.ErrNoRows) {
		// missing, or already moved out of pending by someone else
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to transition booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("update booking %s status to %s: %w", id.String(), string(status), err)
	}

	return booking, nil
}

// CancelIfPending cancels the given bookings in one statement and returns the
// rows that were actually cancelled.
func (r *bookingRepository) CancelIfPending(ctx context.Context, ids []uuid.UUID) ([]entity.ExpiredBooking, error) {
	query := `
		UPDATE bookings
		SET booking_status = 'cancelled', payment_status = 'failed', updated_at = NOW()
		WHERE id = ANY($1) AND booking_status = 'pending'
		RETURNING id, slot_id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to cancel pending bookings",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("cancel %d pending bookings: %w", len(ids), err)
	}
	defer rows.Close()

	var cancelled []entity.ExpiredBooking
	for rows.Next() {
		var eb entity.ExpiredBooking
		if err := rows.Scan(&eb.BookingID, &eb.SlotID); err != nil {
			r.log.Error("Failed to scan cancelled booking row", zap.Error(err))
			return nil, fmt.Errorf("scan cancelled booking row: %w", err)
		}
		cancelled = append(cancelled, eb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cancel %d pending bookings: %w", len(ids), err)
	}

	return cancelled, nil
}
