package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	appMiddleware "github.com/FACorreiaa/go-trip-planner/app/middleware"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/api/booking"
	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/places"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
	"github.com/FACorreiaa/go-trip-planner/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	Sessions         *itinerary.SessionManager
	ItineraryHandler *itinerary.HandlerImpl
	PlacesHandler    *places.HandlerImpl
	WeatherHandler   *weather.HandlerImpl
	ChatHandler      *chat.HandlerImpl
	BookingHandler   *booking.HandlerImpl
	RateLimiter      *appMiddleware.RateLimiter
}

// NewContainer initializes and returns a new dependency container. Missing
// credentials do not fail startup: the affected feature reports itself
// unavailable per request instead.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	// Interaction log
	var interactionRepo itinerary.InteractionRepository = itinerary.NoopInteractionRepo{}
	if cfg.Repositories.Postgres.Enabled {
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		interactionRepo = itinerary.NewPostgresInteractionRepo(pool, logger)
	}

	// Generation
	var requestClient itinerary.RequestClient
	var gemini chat.ContentGenerator
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Generation.APIKey, cfg.Generation.Model)
	if err != nil {
		logger.Warn("Generative AI client unavailable, itinerary generation disabled", slog.Any("error", err))
		requestClient = itinerary.NewUnavailableClient(err)
	} else {
		requestClient = itinerary.NewGeminiRequestClient(aiClient, cfg.Generation.Temperature, cfg.Generation.Timeout)
		gemini = aiClient
	}

	itineraryService := itinerary.NewServiceImpl(requestClient, interactionRepo, logger)
	c.Sessions = itinerary.NewSessionManager(itineraryService, cfg.Sessions.TTL, logger)
	c.ItineraryHandler = itinerary.NewHandlerImpl(itineraryService, c.Sessions, logger)

	// Places
	var finder places.PlaceFinder
	mapsClient, err := places.NewMapsClient(cfg.Places.APIKey)
	switch {
	case err == nil:
		finder = mapsClient
	case errors.Is(err, places.ErrNotConfigured):
		logger.Warn("Google Maps key not set, place lookups disabled")
	default:
		c.Close()
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	placesService := places.NewServiceImpl(finder, c.photoCache(ctx), places.Config{
		APIKey:       cfg.Places.APIKey,
		PhotoBaseURL: cfg.Places.PhotoBaseURL,
		MaxWidth:     cfg.Places.MaxWidth,
	}, logger)
	c.PlacesHandler = places.NewHandlerImpl(placesService, logger)

	// Weather
	weatherService := weather.NewServiceImpl(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout, logger)
	c.WeatherHandler = weather.NewHandlerImpl(weatherService, logger)

	// Chat
	provider, err := chat.NewProvider(chat.ProviderConfig{
		Provider:     cfg.Chat.Provider,
		OpenAIAPIKey: cfg.Chat.OpenAIAPIKey,
		OpenAIModel:  cfg.Chat.OpenAIModel,
	}, gemini)
	if err != nil {
		c.Close()
		return nil, err
	}
	if provider == nil {
		logger.Warn("No chat provider configured, chat replies will echo")
	}
	chatService := chat.NewServiceImpl(provider, cfg.Chat.Temperature, cfg.Chat.MaxTokens, logger)
	c.ChatHandler = chat.NewHandlerImpl(chatService, logger)

	c.BookingHandler = booking.NewHandlerImpl(logger)

	if cfg.RateLimit.RequestsPerMinute > 0 {
		c.RateLimiter = appMiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		go c.RateLimiter.Cleanup(ctx, time.Minute)
	}

	return c, nil
}

// photoCache prefers Redis when an address is configured and reachable.
func (c *Container) photoCache(ctx context.Context) places.PhotoCache {
	ttl := c.Config.Places.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	redisCfg := c.Config.Cache.Redis
	if redisCfg.Addr == "" {
		return places.NewMemoryPhotoCache(ttl)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Logger.Warn("Redis unreachable, using in-memory photo cache",
			slog.String("addr", redisCfg.Addr), slog.Any("error", err))
		_ = rdb.Close()
		return places.NewMemoryPhotoCache(ttl)
	}
	c.Redis = rdb
	c.Logger.Info("Using Redis photo cache", slog.String("addr", redisCfg.Addr))
	return places.NewRedisPhotoCache(rdb, ttl)
}

// RouterConfig exposes the handlers in the shape the router expects.
func (c *Container) RouterConfig() *router.Config {
	rc := &router.Config{
		ItineraryHandler: c.ItineraryHandler,
		PlacesHandler:    c.PlacesHandler,
		WeatherHandler:   c.WeatherHandler,
		ChatHandler:      c.ChatHandler,
		BookingHandler:   c.BookingHandler,
	}
	if c.RateLimiter != nil {
		rc.RateLimit = c.RateLimiter.Limit
	}
	return rc
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
