package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/api/booking"
)

const (
	DefaultTransportBudget = 5000
	noReply                = "Sorry, I couldn't get a reply."
	chatMaxTokens          = 300
)

var ErrChatFailed = errors.New("chat provider failed")

type TransportRequest struct {
	Origin      string  `json:"origin" validate:"required"`
	Destination string  `json:"destination" validate:"required"`
	Budget      float64 `json:"budget" validate:"gte=0"`
	ReturnDate  string  `json:"returnDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type TransportOption struct {
	Mode    string  `json:"mode"`
	Company string  `json:"company"`
	Details string  `json:"details"`
	Price   float64 `json:"price"`
	Link    string  `json:"link"`
}

type TransportSource string

const (
	SourceModel    TransportSource = "model"
	SourceFallback TransportSource = "fallback"
)

type Service interface {
	Reply(ctx context.Context, message string) (string, error)
	TransportOptions(ctx context.Context, req TransportRequest) ([]TransportOption, TransportSource, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger      *slog.Logger
	provider    Provider
	temperature float32
	maxTokens   int
	metrics     *metrics.AppMetrics
}

// NewServiceImpl builds the chat service. A nil provider is allowed: replies
// are echoed and transport options come from the fallback table.
func NewServiceImpl(provider Provider, temperature float32, maxTokens int, logger *slog.Logger) *ServiceImpl {
	metrics.InitAppMetrics()
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &ServiceImpl{
		logger:      logger,
		provider:    provider,
		temperature: temperature,
		maxTokens:   maxTokens,
		metrics:     metrics.Get(),
	}
}

func (s *ServiceImpl) providerName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func (s *ServiceImpl) count(ctx context.Context, kind, outcome string) {
	s.metrics.ChatRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("provider", s.providerName()),
		attribute.String("outcome", outcome),
	))
}

func (s *ServiceImpl) Reply(ctx context.Context, message string) (string, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Reply", trace.WithAttributes(
		attribute.String("chat.provider", s.providerName()),
	))
	defer span.End()

	if s.provider == nil {
		s.count(ctx, "chat", "echo")
		return "Echo: " + message, nil
	}

	prompt := fmt.Sprintf("User: %s\nAssistant: Provide a helpful reply about travel options.", message)
	reply, err := s.provider.Complete(ctx, prompt, CompletionOptions{Temperature: s.temperature, MaxTokens: chatMaxTokens})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		s.logger.ErrorContext(ctx, "Chat completion failed", slog.Any("error", err))
		s.count(ctx, "chat", "error")
		return "", fmt.Errorf("%w: %w", ErrChatFailed, err)
	}
	s.count(ctx, "chat", "ok")
	if strings.TrimSpace(reply) == "" {
		return noReply, nil
	}
	span.SetStatus(codes.Ok, "Reply generated")
	return reply, nil
}

// TransportOptions asks the provider for options and falls back to the
// deterministic table when there is no provider or its answer is unusable.
func (s *ServiceImpl) TransportOptions(ctx context.Context, req TransportRequest) ([]TransportOption, TransportSource, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "TransportOptions", trace.WithAttributes(
		attribute.String("chat.provider", s.providerName()),
	))
	defer span.End()

	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, "", errors.New("missing origin/destination")
	}
	if req.Budget <= 0 {
		req.Budget = DefaultTransportBudget
	}

	if s.provider != nil {
		raw, err := s.provider.Complete(ctx, transportPrompt(req), CompletionOptions{
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
			JSON:        true,
		})
		if err == nil {
			options, perr := ParseTransportOptions(raw)
			if perr == nil {
				s.count(ctx, "transport", "ok")
				span.SetAttributes(attribute.String("transport.source", string(SourceModel)))
				return options, SourceModel, nil
			}
			err = perr
			s.logger.WarnContext(ctx, "Provider returned unusable transport options, using fallback",
				slog.String("raw", raw))
		}
		s.logger.WarnContext(ctx, "Transport options from provider failed", slog.Any("error", err))
		span.RecordError(err)
		s.count(ctx, "transport", "fallback")
	} else {
		s.count(ctx, "transport", "fallback")
	}

	span.SetAttributes(attribute.String("transport.source", string(SourceFallback)))
	return FallbackTransportOptions(req), SourceFallback, nil
}

func transportPrompt(req TransportRequest) string {
	return fmt.Sprintf(`Suggest 3 transport options from %s to %s considering a budget of ₹%s.
Return strict JSON of the form {"options":[{"mode","company","details","price","link"}]} where price is a number in INR.`,
		req.Origin, req.Destination, strconv.FormatFloat(req.Budget, 'f', -1, 64))
}

// priceToken is the first amount in a price string, with an optional sign.
var priceToken = regexp.MustCompile(`-?[0-9][0-9,]*(\.[0-9]+)?`)

type rawOption struct {
	Mode    string `json:"mode"`
	Company string `json:"company"`
	Details string `json:"details"`
	Price   any    `json:"price"`
	Link    string `json:"link"`
}

// ParseTransportOptions accepts either a bare JSON array or an object with an
// "options" array. Prices may be numbers or strings such as "₹3,500".
func ParseTransportOptions(raw string) ([]TransportOption, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(strings.TrimSuffix(text, "```"))

	var items []rawOption
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, fmt.Errorf("transport options are not valid JSON: %w", err)
		}
	} else {
		var wrapped struct {
			Options []rawOption `json:"options"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, fmt.Errorf("transport options are not valid JSON: %w", err)
		}
		items = wrapped.Options
	}
	if len(items) == 0 {
		return nil, errors.New("no transport options returned")
	}

	options := make([]TransportOption, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Mode) == "" {
			return nil, fmt.Errorf("option %d has no mode", i)
		}
		price, err := parsePrice(it.Price)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		options = append(options, TransportOption{
			Mode:    it.Mode,
			Company: it.Company,
			Details: it.Details,
			Price:   price,
			Link:    it.Link,
		})
	}
	return options, nil
}

func parsePrice(v any) (float64, error) {
	switch p := v.(type) {
	case float64:
		if p < 0 {
			return 0, fmt.Errorf("negative price %g", p)
		}
		return p, nil
	case string:
		token := priceToken.FindString(p)
		if token == "" {
			return 0, fmt.Errorf("unreadable price %q", p)
		}
		if strings.HasPrefix(token, "-") {
			return 0, fmt.Errorf("negative price %q", p)
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("unreadable price %q", p)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unreadable price %v", v)
	}
}

var airportCode = regexp.MustCompile(`\(.*?\)`)

// cityName drops bracketed airport codes: "Goa (GOI)" becomes "Goa".
func cityName(place string) string {
	return strings.TrimSpace(airportCode.ReplaceAllString(place, ""))
}

// FallbackTransportOptions is the fixed option table used without a provider.
// Prices are shares of the budget: flights 15% each way, train 5%, bus 3%.
func FallbackTransportOptions(req TransportRequest) []TransportOption {
	budget := req.Budget
	if budget <= 0 {
		budget = DefaultTransportBudget
	}
	share := func(pct float64) float64 { return math.Round(budget * pct) }
	origin, dest := cityName(req.Origin), cityName(req.Destination)

	return []TransportOption{
		{
			Mode:    "Flight",
			Company: "IndiGo",
			Details: fmt.Sprintf("Direct %s → %s", req.Origin, req.Destination),
			Price:   share(0.15),
			Link:    booking.GoogleFlightsURL(req.Origin, req.Destination, ""),
		},
		{
			Mode:    "Flight (Return)",
			Company: "IndiGo",
			Details: fmt.Sprintf("Return %s → %s", req.Destination, req.Origin),
			Price:   share(0.15),
			Link:    booking.GoogleFlightsURL(req.Destination, req.Origin, req.ReturnDate),
		},
		{
			Mode:    "Train",
			Company: "IRCTC",
			Details: fmt.Sprintf("Express %s → %s", origin, dest),
			Price:   share(0.05),
			Link:    booking.IRCTCURL,
		},
		{
			Mode:    "Bus",
			Company: "RedBus",
			Details: fmt.Sprintf("Overnight %s → %s", origin, dest),
			Price:   share(0.03),
			Link:    booking.RedBusURL,
		},
	}
}
