package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ItineraryRequestsTotal   metric.Int64Counter
	ItineraryDurationSeconds metric.Float64Histogram
	ItineraryFailuresTotal   metric.Int64Counter
	ItineraryWarningsTotal   metric.Int64Counter
	PlaceLookupsTotal        metric.Int64Counter
	PlaceCacheHitsTotal      metric.Int64Counter
	ChatRequestsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider; instruments
// created before the provider is installed are delegated once it is.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripPlanner")
		var err error
		m := &AppMetrics{}

		m.ItineraryRequestsTotal, err = meter.Int64Counter(
			"itinerary_requests_total",
			metric.WithDescription("Total number of itinerary generation requests sent to the model"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_requests_total: %v", err)
		}

		m.ItineraryDurationSeconds, err = meter.Float64Histogram(
			"itinerary_duration_seconds",
			metric.WithDescription("Duration of itinerary generation including parsing"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_duration_seconds: %v", err)
		}

		m.ItineraryFailuresTotal, err = meter.Int64Counter(
			"itinerary_failures_total",
			metric.WithDescription("Failed itinerary generations by error kind"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_failures_total: %v", err)
		}

		m.ItineraryWarningsTotal, err = meter.Int64Counter(
			"itinerary_warnings_total",
			metric.WithDescription("Recoverable validation warnings raised on generated plans"),
			metric.WithUnit("{warning}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_warnings_total: %v", err)
		}

		m.PlaceLookupsTotal, err = meter.Int64Counter(
			"place_lookups_total",
			metric.WithDescription("Place photo lookups by outcome"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_lookups_total: %v", err)
		}

		m.PlaceCacheHitsTotal, err = meter.Int64Counter(
			"place_cache_hits_total",
			metric.WithDescription("Place photo lookups served from cache"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create place_cache_hits_total: %v", err)
		}

		m.ChatRequestsTotal, err = meter.Int64Counter(
			"chat_requests_total",
			metric.WithDescription("Chat and transport suggestion requests by provider"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_requests_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
