package itinerary

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	requestKindItinerary = "itinerary"
	maxLoggedRaw         = 2048
	saveTimeout          = 5 * time.Second
)

var _ Service = (*ServiceImpl)(nil)

// Service generates itineraries. Each call is independent and stateless.
type Service interface {
	GenerateItinerary(ctx context.Context, prefs types.TripPreferences) (*Result, error)
}

// Result is a validated plan plus the recoverable warnings raised on it.
type Result struct {
	Plan         *types.ItineraryPlan `json:"plan"`
	Warnings     []string             `json:"warnings,omitempty"`
	DurationDays int                  `json:"durationDays"`
	Model        string               `json:"model"`
}

type ServiceImpl struct {
	logger          *slog.Logger
	client          RequestClient
	interactionRepo InteractionRepository
	metrics         *metrics.AppMetrics
	now             func() time.Time
}

func NewServiceImpl(client RequestClient, interactionRepo InteractionRepository, logger *slog.Logger) *ServiceImpl {
	metrics.InitAppMetrics()
	if interactionRepo == nil {
		interactionRepo = NoopInteractionRepo{}
	}
	return &ServiceImpl{
		logger:          logger,
		client:          client,
		interactionRepo: interactionRepo,
		metrics:         metrics.Get(),
		now:             time.Now,
	}
}

// GenerateItinerary builds the prompt, performs one generation request and
// parses the answer. It does not retry.
func (s *ServiceImpl) GenerateItinerary(ctx context.Context, prefs types.TripPreferences) (*Result, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("trip.source", prefs.Source),
		attribute.String("trip.destination", prefs.Destination),
		attribute.Int("trip.duration_days", prefs.Duration()),
		attribute.Int("trip.num_people", prefs.NumPeople),
	))
	defer span.End()

	l := s.logger.With(
		slog.String("service", "GenerateItinerary"),
		slog.String("destination", prefs.Destination),
		slog.Int("duration_days", prefs.Duration()),
	)

	prompt := BuildPrompt(prefs)
	start := s.now()
	s.metrics.ItineraryRequestsTotal.Add(ctx, 1)

	raw, err := s.client.Generate(ctx, prompt)
	latency := s.now().Sub(start)
	if err != nil {
		kind := KindOf(err)
		l.ErrorContext(ctx, "Itinerary generation request failed", slog.Any("error", err), slog.String("kind", string(kind)))
		s.recordFailure(ctx, span, kind, err, latency)
		s.saveInteraction(ctx, prompt, "", kind, err, latency)
		return nil, err
	}

	plan, err := ParseItinerary(raw)
	if err != nil {
		l.ErrorContext(ctx, "Model returned an invalid itinerary",
			slog.Any("error", err),
			slog.String("raw", truncate(raw, maxLoggedRaw)),
		)
		s.recordFailure(ctx, span, KindInvalidItineraryFormat, err, s.now().Sub(start))
		s.saveInteraction(ctx, prompt, raw, KindInvalidItineraryFormat, err, latency)
		return nil, err
	}

	warnings := CheckPlan(plan, prefs.Duration())
	if len(warnings) > 0 {
		l.WarnContext(ctx, "Generated itinerary has validation warnings", slog.Any("warnings", warnings))
		s.metrics.ItineraryWarningsTotal.Add(ctx, int64(len(warnings)))
	}

	s.metrics.ItineraryDurationSeconds.Record(ctx, s.now().Sub(start).Seconds(),
		metric.WithAttributes(attribute.String("outcome", "ok")))
	s.saveInteraction(ctx, prompt, raw, KindNone, nil, latency)

	span.SetAttributes(
		attribute.Int("plan.days", len(plan.DailyPlans)),
		attribute.Float64("plan.total_cost", plan.TotalEstimatedCost),
		attribute.Int("plan.warnings", len(warnings)),
	)
	span.SetStatus(codes.Ok, "Itinerary generated")
	l.InfoContext(ctx, "Itinerary generated",
		slog.String("trip_title", plan.TripTitle),
		slog.Int("days", len(plan.DailyPlans)),
		slog.Duration("latency", latency),
	)

	return &Result{
		Plan:         plan,
		Warnings:     warnings,
		DurationDays: prefs.Duration(),
		Model:        s.client.Model(),
	}, nil
}

func (s *ServiceImpl) recordFailure(ctx context.Context, span trace.Span, kind ErrorKind, err error, elapsed time.Duration) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))
	kindAttr := metric.WithAttributes(attribute.String("kind", string(kind)))
	s.metrics.ItineraryFailuresTotal.Add(ctx, 1, kindAttr)
	s.metrics.ItineraryDurationSeconds.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("outcome", string(kind))))
}

// saveInteraction survives cancellation of the request context so abandoned
// generations are still logged.
func (s *ServiceImpl) saveInteraction(ctx context.Context, prompt, raw string, kind ErrorKind, genErr error, latency time.Duration) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	interaction := Interaction{
		RequestKind:  requestKindItinerary,
		Prompt:       prompt,
		ResponseText: raw,
		ModelUsed:    s.client.Model(),
		Outcome:      kind,
		LatencyMs:    int(latency.Milliseconds()),
	}
	if genErr != nil {
		interaction.ErrorMessage = genErr.Error()
	}
	if err := s.interactionRepo.SaveInteraction(ctx, interaction); err != nil {
		s.logger.WarnContext(ctx, "Could not record llm interaction", slog.Any("error", err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return runePrefix(s, n) + "...(truncated)"
}

// runePrefix returns at most n bytes of s without splitting a UTF-8 sequence.
func runePrefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
