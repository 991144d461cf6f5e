package adaptor

import (
	"context"
	"errors"
	"net/http"

	"hall-booking/internal/usecase"
	"hall-booking/pkg/fcm"
	"hall-booking/pkg/utils"

	"go.uber.org/zap"
)

type Sweeper interface {
	RunOnce(ctx context.Context) (*usecase.ExpireResult, error)
}

type Handler struct {
	Payment      *PaymentHandler
	Order        *OrderHandler
	Sweep        *SweepHandler
	Notification *NotificationHandler
}

func NewHandler(service *usecase.Service, sweeper Sweeper, log *zap.Logger) *Handler {
	return &Handler{
		Payment:      NewPaymentHandler(service.Settlement, log),
		Order:        NewOrderHandler(service.Settlement, log),
		Sweep:        NewSweepHandler(sweeper, log),
		Notification: NewNotificationHandler(service.Notification, log),
	}
}

// handleServiceError maps a usecase error kind onto the response envelope.
// data is attached to partial-failure and unprocessable responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string, data any) {
	msg := usecase.MessageOf(err)

	switch usecase.KindOf(err) {
	case usecase.KindValidation:
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, msg, nil)

	case usecase.KindVerification:
		log.Warn(operation+" failed - verification", zap.Error(err))
		utils.ResponseUnauthorized(w, msg)

	case usecase.KindNotFound:
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, msg)

	case usecase.KindDisabled:
		log.Warn(operation+" failed - disabled", zap.Error(err))
		utils.ResponseForbidden(w, msg)

	case usecase.KindUnprocessable:
		log.Warn(operation+" failed - unprocessable", zap.Error(err))
		utils.ResponseUnprocessable(w, msg, data)

	case usecase.KindUpstream:
		log.Error(operation+" failed - upstream", zap.Error(err))
		utils.ResponseBadGateway(w, msg, upstreamDetails(err))

	case usecase.KindPartialFailure:
		log.Error(operation+" partially failed", zap.Error(err), zap.Bool("alert", true))
		utils.ResponseInternalErrorWithData(w, msg, data)

	case usecase.KindConfiguration:
		log.Error(operation+" failed - configuration", zap.Error(err))
		utils.ResponseInternalError(w, "Server configuration error")

	case usecase.KindStoreFailure:
		log.Error(operation+" failed - store", zap.Error(err))
		utils.ResponseInternalError(w, msg)

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func upstreamDetails(err error) any {
	var sendErr *fcm.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Body
	}
	return nil
}
