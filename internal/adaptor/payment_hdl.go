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

const missingVerifyFields = "Missing required fields: provider_payment_id, provider_order_id, signature, booking_id"

type PaymentHandler struct {
	service usecase.SettlementService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.SettlementService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// VerifyPayment handles POST /api/payments/verify
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if missing := utils.MissingFields(req); len(missing) > 0 {
		utils.ResponseBadRequest(w, missingVerifyFields, missing)
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking_id", nil)
		return
	}

	result, err := h.service.Confirm(r.Context(), usecase.ConfirmCommand{
		BookingID:         bookingID,
		ProviderPaymentID: req.ProviderPaymentID,
		ProviderOrderID:   req.ProviderOrderID,
		Signature:         req.Signature,
	})
	if err != nil {
		h.handleServiceError(w, err, result)
		return
	}

	switch result.Outcome {
	case usecase.OutcomeAlreadyConfirmed:
		utils.ResponseSuccess(w, "Booking already confirmed", response.SettlementToResponse(result))
	case usecase.OutcomeAlreadySettled:
		utils.ResponseSuccess(w, "Booking already settled", response.SettlementToResponse(result))
	default:
		utils.ResponseSuccess(w, "Payment verified successfully", response.SettlementToResponse(result))
	}
}

func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error, result *usecase.ConfirmResult) {
	// An unknown booking on a provider callback is a bad request, not a missing route.
	if usecase.KindOf(err) == usecase.KindNotFound {
		h.log.Warn("verify payment failed - booking not found", zap.Error(err))
		utils.ResponseBadRequest(w, usecase.MessageOf(err), nil)
		return
	}

	var data any
	if result != nil {
		data = response.SettlementToResponse(result)
	}
	handleServiceError(w, h.log, err, "verify payment", data)
}
