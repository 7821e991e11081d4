package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type HandlerImpl struct {
	service  Service
	sessions *SessionManager
	logger   *slog.Logger
}

func NewHandlerImpl(service Service, sessions *SessionManager, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// GenerateItinerary handles POST /itinerary: one synchronous generation, no session state.
func (h *HandlerImpl) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GenerateItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/itinerary"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GenerateItinerary"))

	prefs, ok := h.decodePreferences(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid preferences")
		return
	}
	span.SetAttributes(attribute.String("app.trip.destination", prefs.Destination))

	result, err := h.service.GenerateItinerary(ctx, prefs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		writeGenerationError(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// CreateSession handles POST /sessions.
func (h *HandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.logger.DebugContext(r.Context(), "Session created", slog.String("session_id", s.ID().String()))
	api.WriteJSONResponse(w, r, http.StatusCreated, s.Snapshot())
}

// GetSession handles GET /sessions/{sessionID}.
func (h *HandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, s.Snapshot())
}

// SubmitSession handles POST /sessions/{sessionID}/submit. Generation runs in
// the background; clients poll GetSession for the outcome.
func (h *HandlerImpl) SubmitSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SubmitSession", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/sessions/{sessionID}/submit"),
	))
	defer span.End()

	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	l := h.logger.With(slog.String("handler", "SubmitSession"), slog.String("session_id", s.ID().String()))

	prefs, ok := h.decodePreferences(w, r, l)
	if !ok {
		return
	}

	token, _, err := s.Submit(ctx, prefs)
	if err != nil {
		l.WarnContext(ctx, "Submission rejected", slog.Any("error", err))
		span.SetStatus(codes.Error, err.Error())
		api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		return
	}

	span.SetAttributes(attribute.String("app.generation.token", token.String()))
	l.InfoContext(ctx, "Generation started", slog.String("token", token.String()))
	api.WriteJSONResponse(w, r, http.StatusAccepted, s.Snapshot())
}

// ResetSession handles POST /sessions/{sessionID}/reset.
func (h *HandlerImpl) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, s.Reset())
}

func (h *HandlerImpl) lookupSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *HandlerImpl) decodePreferences(w http.ResponseWriter, r *http.Request, l *slog.Logger) (types.TripPreferences, bool) {
	var req types.TripRequest
	if err := api.DecodeValid(w, r, &req); err != nil {
		l.WarnContext(r.Context(), "Rejected trip request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return types.TripPreferences{}, false
	}
	prefs, err := req.Preferences()
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return types.TripPreferences{}, false
	}
	return prefs, true
}

func writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindOf(err)
	switch kind {
	case KindInvalidItineraryFormat:
		api.ErrorResponseWithCode(w, r, http.StatusUnprocessableEntity, string(kind),
			"The AI returned an invalid itinerary format. Please regenerate.")
	case KindServiceUnavailable:
		api.ErrorResponseWithCode(w, r, http.StatusServiceUnavailable, string(kind),
			"Itinerary generation is not configured on this server.")
	default:
		msg := "Failed to generate itinerary. The AI might be busy; please try again."
		if errors.Is(err, ErrGenerationFailed) && errors.Is(err, context.DeadlineExceeded) {
			msg = "Itinerary generation timed out; please try again."
		}
		api.ErrorResponseWithCode(w, r, http.StatusBadGateway, string(kind), msg)
	}
}
