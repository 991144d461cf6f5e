package response

import (
	"hall-booking/internal/data/entity"
	"hall-booking/internal/usecase"
)

type SettlementResponse struct {
	BookingID     string               `json:"booking_id"`
	BookingStatus entity.BookingStatus `json:"booking_status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
}

type ExpireResponse struct {
	Expired       int      `json:"expired"`
	BookingIDs    []string `json:"booking_ids"`
	SlotsReleased int64    `json:"slots_released"`
}

type NotificationResponse struct {
	UserID string `json:"user_id"`
}

func SettlementToResponse(res *usecase.ConfirmResult) SettlementResponse {
	return SettlementResponse{
		BookingID:     res.BookingID.String(),
		BookingStatus: res.BookingStatus,
		PaymentStatus: res.PaymentStatus,
	}
}

func ExpireToResponse(res *usecase.ExpireResult) ExpireResponse {
	ids := make([]string, len(res.BookingIDs))
	for i, id := range res.BookingIDs {
		ids[i] = id.String()
	}
	return ExpireResponse{
		Expired:       res.Expired,
		BookingIDs:    ids,
		SlotsReleased: res.SlotsReleased,
	}
}
