package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/onecall"

var (
	ErrInvalidCoordinates = errors.New("invalid lat/lng")
	ErrNotConfigured      = errors.New("server missing OPENWEATHER_KEY")
	ErrUpstream           = errors.New("weather provider error")
)

type Service interface {
	Forecast(ctx context.Context, lat, lng string) (json.RawMessage, error)
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl proxies the OpenWeather one-call endpoint. Responses are passed
// through unchanged.
type ServiceImpl struct {
	logger  *slog.Logger
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewServiceImpl(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ServiceImpl{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func parseCoordinate(v string, limit float64) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}

func (s *ServiceImpl) Forecast(ctx context.Context, lat, lng string) (json.RawMessage, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Forecast")
	defer span.End()

	if _, ok := parseCoordinate(lat, 90); !ok {
		return nil, fmt.Errorf("%w: lat %q", ErrInvalidCoordinates, lat)
	}
	if _, ok := parseCoordinate(lng, 180); !ok {
		return nil, fmt.Errorf("%w: lng %q", ErrInvalidCoordinates, lng)
	}
	if s.apiKey == "" {
		return nil, ErrNotConfigured
	}
	span.SetAttributes(attribute.String("weather.lat", lat), attribute.String("weather.lng", lng))

	q := url.Values{}
	q.Set("lat", lat)
	q.Set("lon", lng)
	q.Set("exclude", "minutely,hourly,alerts")
	q.Set("units", "metric")
	q.Set("appid", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather request failed")
		s.logger.ErrorContext(ctx, "Weather request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		s.logger.WarnContext(ctx, "Weather provider returned an error",
			slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUpstream)
	}

	span.SetStatus(codes.Ok, "Forecast fetched")
	return json.RawMessage(body), nil
}
