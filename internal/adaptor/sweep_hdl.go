package adaptor

import (
	"errors"
	"fmt"
	"net/http"

	"hall-booking/internal/dto/response"
	"hall-booking/internal/worker"
	"hall-booking/pkg/utils"

	"go.uber.org/zap"
)

type SweepHandler struct {
	sweeper Sweeper
	log     *zap.Logger
}

func NewSweepHandler(sweeper Sweeper, log *zap.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		log:     log.With(zap.String("handler", "sweep")),
	}
}

// ExpireBookings handles POST /api/internal/bookings/expire
func (h *SweepHandler) ExpireBookings(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.RunOnce(r.Context())
	if errors.Is(err, worker.ErrSweepInProgress) {
		utils.ResponseConflict(w, "Expiry sweep already in progress")
		return
	}
	if err != nil {
		var data any
		if result != nil {
			data = response.ExpireToResponse(result)
		}
		handleServiceError(w, h.log, err, "expire bookings", data)
		return
	}

	if result.Expired == 0 {
		utils.ResponseSuccess(w, "No expired bookings found", response.ExpireToResponse(result))
		return
	}
	utils.ResponseSuccess(w, fmt.Sprintf("Expired %d booking(s)", result.Expired), response.ExpireToResponse(result))
}
