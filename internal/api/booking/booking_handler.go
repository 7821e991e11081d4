package booking

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
)

type HandlerImpl struct {
	logger *slog.Logger
}

func NewHandlerImpl(logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger}
}

// GetLinks handles GET /booking-links.
func (h *HandlerImpl) GetLinks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := LinksRequest{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Date:        q.Get("date"),
		ReturnDate:  q.Get("returnDate"),
		Location:    q.Get("location"),
		Checkin:     q.Get("checkin"),
		Checkout:    q.Get("checkout"),
	}
	if req.Destination == "" && req.Location == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "destination or location is required")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Build(req))
}
