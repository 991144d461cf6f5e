package wire

import (
	"net/http"

	"hall-booking/internal/adaptor"
	"hall-booking/internal/usecase"
	"hall-booking/pkg/middleware"
	"hall-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring builds the HTTP surface over already constructed services.
func Wiring(service *usecase.Service, sweeper adaptor.Sweeper, config *utils.Config, logger *zap.Logger) *App {
	handler := adaptor.NewHandler(service, sweeper, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	wirePayment(r, handler.Payment, handler.Order, config, logger)
	wireInternal(r, handler.Sweep, handler.Notification, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}
