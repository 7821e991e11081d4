package places

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

type PhotoURLResponse struct {
	PhotoURL string `json:"photoUrl"`
}

type FindPlaceResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// PlacePhotoURL handles GET /place-photo-url?place=.
func (h *HandlerImpl) PlacePhotoURL(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "PlacePhotoURL", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/place-photo-url"),
	))
	defer span.End()

	place := r.URL.Query().Get("place")
	if place == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing place parameter")
		return
	}

	photoURL, err := h.service.PhotoURL(ctx, place)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, PhotoURLResponse{PhotoURL: photoURL})
}

// FindPlace handles GET /find-place?q=.
func (h *HandlerImpl) FindPlace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing q")
		return
	}

	candidates, err := h.service.FindPlace(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, FindPlaceResponse{Candidates: candidates})
}

// PlacePhoto handles GET /place-photo?photoref= by redirecting to the photo.
func (h *HandlerImpl) PlacePhoto(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("photoref")
	if ref == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing photoref")
		return
	}
	target, err := h.service.PhotoRedirectURL(ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingQuery):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPlaceNotFound), errors.Is(err, ErrNoPhoto):
		api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotConfigured):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Places request failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "places lookup failed")
	}
}
