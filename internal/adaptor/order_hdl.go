package adaptor

import (
	"encoding/json"
	"net/http"

	"hall-booking/internal/dto/request"
	"hall-booking/internal/dto/response"
	"hall-booking/internal/usecase"
	"hall-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.SettlementService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.SettlementService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// SkipPayment handles POST /api/orders (service role, bypass mode only).
// The booking is confirmed without any payment evidence.
func (h *OrderHandler) SkipPayment(w http.ResponseWriter, r *http.Request) {
	var req request.SkipPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookingID, _ := uuid.Parse(req.BookingID)
	caller, _ := utils.GetCallerFromContext(r.Context())

	result, err := h.service.SkipPayment(r.Context(), bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "skip payment", nil)
		return
	}

	h.log.Warn("Payment skipped",
		zap.String("booking_id", bookingID.String()),
		zap.String("caller", caller),
		zap.String("outcome", string(result.Outcome)),
	)

	if result.Outcome != usecase.OutcomeConfirmed {
		utils.ResponseSuccess(w, "Booking already settled", response.SettlementToResponse(result))
		return
	}
	utils.ResponseSuccess(w, "Booking confirmed (payment skipped)", response.SettlementToResponse(result))
}
