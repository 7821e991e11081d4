package weather

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GetWeather handles GET /weather?lat=&lng=.
func (h *HandlerImpl) GetWeather(w http.ResponseWriter, r *http.Request) {
	lat, lng := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
	if lat == "" || lng == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing lat/lng")
		return
	}

	forecast, err := h.service.Forecast(r.Context(), lat, lng)
	switch {
	case err == nil:
		api.WriteJSONResponse(w, r, http.StatusOK, forecast)
	case errors.Is(err, ErrInvalidCoordinates):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotConfigured):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Weather lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "weather lookup failed")
	}
}
