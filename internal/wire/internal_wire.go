package wire

import (
	"hall-booking/internal/adaptor"
	"hall-booking/pkg/middleware"
	"hall-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireInternal(
	r chi.Router,
	sweepHandler *adaptor.SweepHandler,
	notificationHandler *adaptor.NotificationHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/internal", func(r chi.Router) {
		r.Use(middleware.ServiceRole(config.App.ServiceRoleKey, log))

		r.Post("/bookings/expire", sweepHandler.ExpireBookings)
		r.Post("/notifications", notificationHandler.SendNotification)
	})
}
