package chat

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

type MessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type MessageResponse struct {
	Reply string `json:"reply"`
}

type TransportResponse struct {
	Options []TransportOption `json:"options"`
	Source  TransportSource   `json:"source"`
}

// Chat handles POST /chat.
func (h *HandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("handler", "Chat"))

	var req MessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing message")
		return
	}

	reply, err := h.service.Reply(r.Context(), req.Message)
	if err != nil {
		l.ErrorContext(r.Context(), "Chat reply failed", slog.Any("error", err))
		status := http.StatusInternalServerError
		if errors.Is(err, ErrChatFailed) {
			status = http.StatusBadGateway
		}
		api.ErrorResponse(w, r, status, "Sorry, the assistant is unavailable right now.")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, MessageResponse{Reply: reply})
}

// TransportOptions handles POST /transport-options.
func (h *HandlerImpl) TransportOptions(w http.ResponseWriter, r *http.Request) {
	var req TransportRequest
	if err := api.DecodeValid(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	options, source, err := h.service.TransportOptions(r.Context(), req)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, TransportResponse{Options: options, Source: source})
}
