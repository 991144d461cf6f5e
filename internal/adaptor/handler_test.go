package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hall-booking/internal/data/entity"
	"hall-booking/internal/usecase"
	"hall-booking/internal/worker"
	"hall-booking/pkg/fcm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSettlement struct {
	result  *usecase.ConfirmResult
	err     error
	lastCmd usecase.ConfirmCommand
	skipped uuid.UUID
}

func (f *fakeSettlement) Confirm(_ context.Context, cmd usecase.ConfirmCommand) (*usecase.ConfirmResult, error) {
	f.lastCmd = cmd
	return f.result, f.err
}

func (f *fakeSettlement) Expire(context.Context, time.Time, time.Duration) (*usecase.ExpireResult, error) {
	return nil, nil
}

func (f *fakeSettlement) SkipPayment(_ context.Context, id uuid.UUID) (*usecase.ConfirmResult, error) {
	f.skipped = id
	return f.result, f.err
}

func (f *fakeSettlement) Drain(context.Context) error { return nil }

type fakeSweeper struct {
	result *usecase.ExpireResult
	err    error
}

func (f *fakeSweeper) RunOnce(context.Context) (*usecase.ExpireResult, error) {
	return f.result, f.err
}

type fakeNotifier struct {
	err  error
	sent []entity.Notification
}

func (f *fakeNotifier) Send(_ context.Context, n entity.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) Dispatch(ctx context.Context, n entity.Notification) error {
	return f.Send(ctx, n)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func do(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func svcErr(kind usecase.ErrorKind, msg string) error {
	return &usecase.Error{Kind: kind, Op: "test", Message: msg}
}

func verifyBody(bookingID string) string {
	b, _ := json.Marshal(map[string]string{
		"provider_payment_id": "pay_1",
		"provider_order_id":   "order_1",
		"signature":           "abcd",
		"booking_id":          bookingID,
	})
	return string(b)
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	h := NewPaymentHandler(&fakeSettlement{}, zap.NewNop())

	rec, env := do(t, h.VerifyPayment, `{"provider_payment_id":"pay_1","booking_id":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: provider_payment_id, provider_order_id, signature, booking_id", env.Message)
	assert.JSONEq(t, `["provider_order_id","signature","booking_id"]`, string(env.Errors))
}

func TestVerifyPayment_BadInput(t *testing.T) {
	h := NewPaymentHandler(&fakeSettlement{}, zap.NewNop())

	rec, env := do(t, h.VerifyPayment, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", env.Message)

	rec, env = do(t, h.VerifyPayment, verifyBody("b1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid booking_id", env.Message)
}

func TestVerifyPayment_Outcomes(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		result   *usecase.ConfirmResult
		err      error
		wantCode int
		wantMsg  string
		wantData bool
	}{
		{
			name: "confirmed",
			result: &usecase.ConfirmResult{Outcome: usecase.OutcomeConfirmed, BookingID: id,
				BookingStatus: entity.BookingStatusConfirmed, PaymentStatus: entity.PaymentStatusCompleted},
			wantCode: http.StatusOK,
			wantMsg:  "Payment verified successfully",
			wantData: true,
		},
		{
			name: "already confirmed",
			result: &usecase.ConfirmResult{Outcome: usecase.OutcomeAlreadyConfirmed, BookingID: id,
				BookingStatus: entity.BookingStatusConfirmed, PaymentStatus: entity.PaymentStatusCompleted},
			wantCode: http.StatusOK,
			wantMsg:  "Booking already confirmed",
			wantData: true,
		},
		{
			name: "already settled",
			result: &usecase.ConfirmResult{Outcome: usecase.OutcomeAlreadySettled, BookingID: id,
				BookingStatus: entity.BookingStatusCancelled, PaymentStatus: entity.PaymentStatusFailed},
			wantCode: http.StatusOK,
			wantMsg:  "Booking already settled",
			wantData: true,
		},
		{
			name:     "invalid signature",
			err:      svcErr(usecase.KindVerification, "Invalid payment signature"),
			wantCode: http.StatusUnauthorized,
			wantMsg:  "Invalid payment signature",
		},
		{
			name:     "malformed signature",
			err:      svcErr(usecase.KindValidation, "Malformed payment signature"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "Malformed payment signature",
		},
		{
			name:     "booking not found",
			err:      svcErr(usecase.KindNotFound, "Booking not found"),
			wantCode: http.StatusBadRequest,
			wantMsg:  "Booking not found",
		},
		{
			name:     "update failed",
			err:      svcErr(usecase.KindStoreFailure, "Failed to update booking status"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Failed to update booking status",
		},
		{
			name: "partial failure",
			result: &usecase.ConfirmResult{Outcome: usecase.OutcomeConfirmed, BookingID: id,
				BookingStatus: entity.BookingStatusConfirmed, PaymentStatus: entity.PaymentStatusCompleted},
			err:      svcErr(usecase.KindPartialFailure, "Booking confirmed but payment record could not be saved"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Booking confirmed but payment record could not be saved",
			wantData: true,
		},
		{
			name:     "missing secret",
			err:      svcErr(usecase.KindConfiguration, "anything"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Server configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSettlement{result: tt.result, err: tt.err}
			h := NewPaymentHandler(svc, zap.NewNop())

			rec, env := do(t, h.VerifyPayment, verifyBody(id.String()))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.Equal(t, tt.wantCode == http.StatusOK, env.Status)

			if tt.wantData {
				var data map[string]string
				require.NoError(t, json.Unmarshal(env.Data, &data))
				assert.Equal(t, id.String(), data["booking_id"])
				assert.Equal(t, string(tt.result.BookingStatus), data["booking_status"])
			} else {
				assert.Empty(t, env.Data)
			}

			assert.Equal(t, id, svc.lastCmd.BookingID)
			assert.Equal(t, "abcd", svc.lastCmd.Signature)
		})
	}
}

func TestSkipPayment(t *testing.T) {
	id := uuid.New()

	t.Run("disabled", func(t *testing.T) {
		h := NewOrderHandler(&fakeSettlement{err: svcErr(usecase.KindDisabled, "Payment bypass is disabled")}, zap.NewNop())
		rec, env := do(t, h.SkipPayment, `{"booking_id":"`+id.String()+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Payment bypass is disabled", env.Message)
	})

	t.Run("invalid id", func(t *testing.T) {
		h := NewOrderHandler(&fakeSettlement{}, zap.NewNop())
		rec, _ := do(t, h.SkipPayment, `{"booking_id":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("confirmed", func(t *testing.T) {
		svc := &fakeSettlement{result: &usecase.ConfirmResult{Outcome: usecase.OutcomeConfirmed, BookingID: id,
			BookingStatus: entity.BookingStatusConfirmed, PaymentStatus: entity.PaymentStatusCompleted}}
		h := NewOrderHandler(svc, zap.NewNop())
		rec, _ := do(t, h.SkipPayment, `{"booking_id":"`+id.String()+`"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, svc.skipped)
	})
}

func TestExpireBookings(t *testing.T) {
	id := uuid.New()

	t.Run("expired some", func(t *testing.T) {
		h := NewSweepHandler(&fakeSweeper{result: &usecase.ExpireResult{Expired: 1, BookingIDs: []uuid.UUID{id}, SlotsReleased: 1}}, zap.NewNop())
		rec, env := do(t, h.ExpireBookings, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Expired 1 booking(s)", env.Message)
		assert.JSONEq(t, `{"expired":1,"booking_ids":["`+id.String()+`"],"slots_released":1}`, string(env.Data))
	})

	t.Run("nothing to do", func(t *testing.T) {
		h := NewSweepHandler(&fakeSweeper{result: &usecase.ExpireResult{BookingIDs: []uuid.UUID{}}}, zap.NewNop())
		rec, env := do(t, h.ExpireBookings, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"expired":0,"booking_ids":[],"slots_released":0}`, string(env.Data))
	})

	t.Run("already running", func(t *testing.T) {
		h := NewSweepHandler(&fakeSweeper{err: worker.ErrSweepInProgress}, zap.NewNop())
		rec, _ := do(t, h.ExpireBookings, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("partial failure reports cancelled bookings", func(t *testing.T) {
		h := NewSweepHandler(&fakeSweeper{
			result: &usecase.ExpireResult{Expired: 1, BookingIDs: []uuid.UUID{id}},
			err:    svcErr(usecase.KindPartialFailure, "Bookings cancelled but failed to release some slots"),
		}, zap.NewNop())
		rec, env := do(t, h.ExpireBookings, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, string(env.Data), `"expired":1`)
	})

	t.Run("aborted", func(t *testing.T) {
		h := NewSweepHandler(&fakeSweeper{err: svcErr(usecase.KindStoreFailure, "Failed to update expired bookings")}, zap.NewNop())
		rec, env := do(t, h.ExpireBookings, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, env.Data)
	})
}

func TestSendNotification(t *testing.T) {
	id := uuid.New()
	body := `{"user_id":"` + id.String() + `","title":"Hello","body":"World","data":{"k":"v"}}`

	t.Run("missing fields", func(t *testing.T) {
		h := NewNotificationHandler(&fakeNotifier{}, zap.NewNop())
		rec, env := do(t, h.SendNotification, `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required fields: user_id, title, body", env.Message)
	})

	t.Run("sent", func(t *testing.T) {
		n := &fakeNotifier{}
		h := NewNotificationHandler(n, zap.NewNop())
		rec, env := do(t, h.SendNotification, body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Notification sent successfully", env.Message)
		require.Len(t, n.sent, 1)
		assert.Equal(t, "v", n.sent[0].Data["k"])
	})

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"user not found", svcErr(usecase.KindNotFound, "User not found"), http.StatusNotFound},
		{"no token", svcErr(usecase.KindUnprocessable, "User has no registered FCM token"), http.StatusUnprocessableEntity},
		{"not configured", svcErr(usecase.KindConfiguration, "Server configuration error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewNotificationHandler(&fakeNotifier{err: tt.err}, zap.NewNop())
			rec, _ := do(t, h.SendNotification, body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	t.Run("provider failure", func(t *testing.T) {
		err := &usecase.Error{
			Kind:    usecase.KindUpstream,
			Message: "Failed to send notification",
			Err:     &fcm.SendError{StatusCode: 404, Body: "UNREGISTERED"},
		}
		h := NewNotificationHandler(&fakeNotifier{err: err}, zap.NewNop())
		rec, env := do(t, h.SendNotification, body)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `"UNREGISTERED"`, string(env.Errors))
	})
}
