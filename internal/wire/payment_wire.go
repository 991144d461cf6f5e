package wire

import (
	"hall-booking/internal/adaptor"
	"hall-booking/pkg/middleware"
	"hall-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	orderHandler *adaptor.OrderHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// Provider callback, authenticated by its HMAC signature.
	r.Post("/api/payments/verify", paymentHandler.VerifyPayment)

	// Payment bypass, off unless PAYMENT_ALLOW_SKIP is set.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ServiceRole(config.App.ServiceRoleKey, log))

		r.Post("/api/orders", orderHandler.SkipPayment)
	})
}
