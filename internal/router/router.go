package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-trip-planner/internal/api/booking"
	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/places"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ItineraryHandler *itinerary.HandlerImpl
	PlacesHandler    *places.HandlerImpl
	WeatherHandler   *weather.HandlerImpl
	ChatHandler      *chat.HandlerImpl
	BookingHandler   *booking.HandlerImpl
	// RateLimit guards the routes that spend model or maps quota. Nil disables it.
	RateLimit      func(http.Handler) http.Handler
	AllowedOrigins []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) is applied in main.go
// before this router is mounted.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	limit := cfg.RateLimit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Quota-spending routes
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/itinerary", cfg.ItineraryHandler.GenerateItinerary)
			r.Post("/sessions/{sessionID}/submit", cfg.ItineraryHandler.SubmitSession)
			r.Post("/transport-options", cfg.ChatHandler.TransportOptions)
			r.Post("/chat", cfg.ChatHandler.Chat)
			r.Get("/place-photo-url", cfg.PlacesHandler.PlacePhotoURL)
			r.Get("/find-place", cfg.PlacesHandler.FindPlace)
			r.Get("/weather", cfg.WeatherHandler.GetWeather)
		})

		r.Post("/sessions", cfg.ItineraryHandler.CreateSession)
		r.Get("/sessions/{sessionID}", cfg.ItineraryHandler.GetSession)
		r.Post("/sessions/{sessionID}/reset", cfg.ItineraryHandler.ResetSession)
		r.Get("/place-photo", cfg.PlacesHandler.PlacePhoto)
		r.Get("/booking-links", cfg.BookingHandler.GetLinks)
	})

	return r
}
