//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hall-booking/internal/data/entity"
	"hall-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startPostgres(t *testing.T) database.PgxIface {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "hall",
			"POSTGRES_PASSWORD": "hall",
			"POSTGRES_DB":       "hall_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://hall:hall@%s:%s/hall_booking?sslmode=disable", host, port.Port())
	db, err := database.Open(ctx, connStr, 10)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db))
	return db
}

type fixture struct {
	bookingID uuid.UUID
	slotID    uuid.UUID
}

func seedPendingBooking(t *testing.T, db database.PgxIface, createdAt time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	user, hall, slot, booking := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, fcm_token) VALUES ($1, 'token')`, []any{user}},
		{`INSERT INTO halls (id, name, owner_id) VALUES ($1, 'Grand Hall', $2)`, []any{hall, user}},
		{`INSERT INTO slots (id, hall_id, date, start_time, status) VALUES ($1, $2, '2026-04-02', '18:30', 'held')`, []any{slot, hall}},
		{`INSERT INTO bookings (id, user_id, hall_id, slot_id, total_price, created_at) VALUES ($1, $2, $3, $4, 1500, $5)`, []any{booking, user, hall, slot, createdAt}},
	}
	for _, s := range stmts {
		_, err := db.Exec(ctx, s.sql, s.args...)
		require.NoError(t, err)
	}

	return fixture{bookingID: booking, slotID: slot}
}

func TestSettlementStore_Postgres(t *testing.T) {
	db := startPostgres(t)
	repo := NewRepository(db, zap.NewNop())
	store := repo.Settlement
	ctx := context.Background()

	t.Run("context lookup", func(t *testing.T) {
		f := seedPendingBooking(t, db, time.Now())

		bc, err := store.FindBookingContext(ctx, f.bookingID)
		require.NoError(t, err)
		require.NotNil(t, bc.HallName)
		assert.Equal(t, "Grand Hall", *bc.HallName)
		assert.Equal(t, "2026-04-02", *bc.SlotDate)
		assert.Equal(t, "18:30", *bc.SlotTime)
	})

	t.Run("confirm once", func(t *testing.T) {
		f := seedPendingBooking(t, db, time.Now())

		first, err := store.ConfirmPending(ctx, f.bookingID)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, 1500.0, first.TotalPrice)

		second, err := store.ConfirmPending(ctx, f.bookingID)
		require.NoError(t, err)
		assert.Nil(t, second)

		require.NoError(t, store.CreatePayment(ctx, &entity.Payment{
			BaseSimple:        entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
			BookingID:         f.bookingID,
			ProviderPaymentID: "pay_1",
			ProviderOrderID:   "order_1",
			Status:            entity.PaymentStatusCompleted,
			Amount:            first.TotalPrice,
		}))
		assert.Error(t, store.CreatePayment(ctx, &entity.Payment{
			BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
			BookingID:  f.bookingID,
			Status:     entity.PaymentStatusCompleted,
		}))
	})

	t.Run("expire and release", func(t *testing.T) {
		now := time.Now()
		old := seedPendingBooking(t, db, now.Add(-11*time.Minute))
		fresh := seedPendingBooking(t, db, now.Add(-9*time.Minute))

		expired, err := store.FindExpiredPending(ctx, now.Add(-10*time.Minute))
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(expired))
		for _, b := range expired {
			ids = append(ids, b.ID)
		}
		assert.Contains(t, ids, old.bookingID)
		assert.NotContains(t, ids, fresh.bookingID)

		cancelled, err := store.CancelPending(ctx, []uuid.UUID{old.bookingID})
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, old.slotID, cancelled[0].SlotID)

		n, err := store.ReleaseSlots(ctx, []uuid.UUID{old.slotID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		b, err := store.FindBooking(ctx, old.bookingID)
		require.NoError(t, err)
		assert.Equal(t, entity.BookingStatusCancelled, b.BookingStatus)
		assert.Equal(t, entity.PaymentStatusFailed, b.PaymentStatus)
	})

	t.Run("confirm races cancel", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			f := seedPendingBooking(t, db, time.Now().Add(-time.Hour))

			var (
				wg        sync.WaitGroup
				confirmed *entity.Booking
				cancelled []entity.ExpiredBooking
				errs      [2]error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				confirmed, errs[0] = store.ConfirmPending(ctx, f.bookingID)
			}()
			go func() {
				defer wg.Done()
				cancelled, errs[1] = store.CancelPending(ctx, []uuid.UUID{f.bookingID})
			}()
			wg.Wait()

			require.NoError(t, errs[0])
			require.NoError(t, errs[1])

			// exactly one side wins
			won := 0
			if confirmed != nil {
				won++
			}
			won += len(cancelled)
			assert.Equal(t, 1, won, "iteration %d", i)
		}
	})
}
