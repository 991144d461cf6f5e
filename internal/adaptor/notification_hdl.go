package adaptor

import (
	"encoding/json"
	"net/http"

	"hall-booking/internal/data/entity"
	"hall-booking/internal/dto/request"
	"hall-booking/internal/dto/response"
	"hall-booking/internal/usecase"
	"hall-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service usecase.NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service usecase.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With(zap.String("handler", "notification")),
	}
}

// SendNotification handles POST /api/internal/notifications
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req request.SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if missing := utils.MissingFields(req); len(missing) > 0 {
		utils.ResponseBadRequest(w, "Missing required fields: user_id, title, body", missing)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid user_id", nil)
		return
	}

	err = h.service.Send(r.Context(), entity.Notification{
		UserID: userID,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
	})
	if err != nil {
		handleServiceError(w, h.log, err, "send notification", response.NotificationResponse{UserID: userID.String()})
		return
	}

	utils.ResponseSuccess(w, "Notification sent successfully", response.NotificationResponse{UserID: userID.String()})
}
