package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
)

const (
	DefaultPhotoBaseURL = "https://maps.googleapis.com/maps/api/place/photo"
	defaultMaxWidth     = 1200
	// ProxyPhotoPath serves a redirect to the photo when the direct URL could not be resolved.
	ProxyPhotoPath = "/api/v1/place-photo"
)

var (
	ErrMissingQuery  = errors.New("missing place query")
	ErrPlaceNotFound = errors.New("place not found")
	ErrNoPhoto       = errors.New("no photos available for this place")
	ErrNotConfigured = errors.New("places lookup is not configured")
)

// PlaceFinder is the part of *maps.Client the service uses.
type PlaceFinder interface {
	FindPlaceFromText(ctx context.Context, r *maps.FindPlaceFromTextRequest) (maps.FindPlaceFromTextResponse, error)
}

type Candidate struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Rating           float32  `json:"rating,omitempty"`
	Lat              float64  `json:"lat,omitempty"`
	Lng              float64  `json:"lng,omitempty"`
	PhotoReferences  []string `json:"photoReferences,omitempty"`
}

type Service interface {
	PhotoURL(ctx context.Context, place string) (string, error)
	FindPlace(ctx context.Context, query string) ([]Candidate, error)
	PhotoRedirectURL(photoRef string) (string, error)
}

var _ Service = (*ServiceImpl)(nil)

type Config struct {
	APIKey       string
	PhotoBaseURL string
	MaxWidth     int
}

type ServiceImpl struct {
	logger     *slog.Logger
	finder     PlaceFinder
	cache      PhotoCache
	httpClient *http.Client
	cfg        Config
	group      singleflight.Group
	metrics    *metrics.AppMetrics
}

// NewServiceImpl builds the places service. A nil finder leaves it unconfigured:
// every lookup returns ErrNotConfigured.
func NewServiceImpl(finder PlaceFinder, photoCache PhotoCache, cfg Config, logger *slog.Logger) *ServiceImpl {
	metrics.InitAppMetrics()
	if cfg.PhotoBaseURL == "" {
		cfg.PhotoBaseURL = DefaultPhotoBaseURL
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = defaultMaxWidth
	}
	if photoCache == nil {
		photoCache = NewMemoryPhotoCache(time.Hour)
	}
	return &ServiceImpl{
		logger: logger,
		finder: finder,
		cache:  photoCache,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:     cfg,
		metrics: metrics.Get(),
	}
}

// NewMapsClient returns a Google Maps client, or ErrNotConfigured without a key.
func NewMapsClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

var noiseWords = regexp.MustCompile(`(?i)various|nearby`)

// SanitizeQuery drops filler words the model likes to put in locations and
// turns slashes into spaces so "Baga/Calangute" searches as two words.
func SanitizeQuery(q string) string {
	q = noiseWords.ReplaceAllString(q, "")
	q = strings.ReplaceAll(q, "/", " ")
	return strings.Join(strings.Fields(q), " ")
}

// PhotoURL resolves a displayable photo URL for a place name. Concurrent
// lookups of the same place share one upstream call.
func (s *ServiceImpl) PhotoURL(ctx context.Context, place string) (string, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "PhotoURL")
	defer span.End()

	query := SanitizeQuery(place)
	if query == "" {
		return "", ErrMissingQuery
	}
	if s.finder == nil {
		return "", ErrNotConfigured
	}
	span.SetAttributes(attribute.String("places.query", query))
	key := strings.ToLower(query)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Photo cache read failed", slog.Any("error", err))
	} else if ok {
		s.metrics.PlaceCacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("places.cache_hit", true))
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.resolvePhotoURL(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	photoURL := v.(string)

	if err := s.cache.Set(ctx, key, photoURL); err != nil {
		s.logger.WarnContext(ctx, "Photo cache write failed", slog.Any("error", err))
	}
	span.SetStatus(codes.Ok, "Photo resolved")
	return photoURL, nil
}

func (s *ServiceImpl) resolvePhotoURL(ctx context.Context, query string) (string, error) {
	resp, err := s.find(ctx, query, maps.PlaceSearchFieldMaskPlaceID, maps.PlaceSearchFieldMaskName, maps.PlaceSearchFieldMaskPhotos)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrPlaceNotFound
	}
	photos := resp.Candidates[0].Photos
	if len(photos) == 0 || photos[0].PhotoReference == "" {
		return "", ErrNoPhoto
	}
	ref := photos[0].PhotoReference

	location, err := s.followPhoto(ctx, ref)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not resolve photo redirect, using proxy URL",
			slog.String("query", query), slog.Any("error", err))
	}
	if location == "" {
		return proxyPhotoURL(ref), nil
	}
	return location, nil
}

// followPhoto asks the photo endpoint for the image and returns the redirect
// target without downloading it.
func (s *ServiceImpl) followPhoto(ctx context.Context, ref string) (string, error) {
	photoURL, err := s.PhotoRedirectURL(ref)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("Location"), nil
}

func proxyPhotoURL(ref string) string {
	return ProxyPhotoPath + "?photoref=" + url.QueryEscape(ref)
}

// PhotoRedirectURL is the upstream photo endpoint for a photo reference.
func (s *ServiceImpl) PhotoRedirectURL(photoRef string) (string, error) {
	if photoRef == "" {
		return "", ErrMissingQuery
	}
	if s.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("maxwidth", fmt.Sprint(s.cfg.MaxWidth))
	q.Set("photoreference", photoRef)
	q.Set("key", s.cfg.APIKey)
	return s.cfg.PhotoBaseURL + "?" + q.Encode(), nil
}

// FindPlace returns the text-search candidates for query.
func (s *ServiceImpl) FindPlace(ctx context.Context, query string) ([]Candidate, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindPlace")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrMissingQuery
	}
	if s.finder == nil {
		return nil, ErrNotConfigured
	}

	resp, err := s.find(ctx, query,
		maps.PlaceSearchFieldMaskPlaceID,
		maps.PlaceSearchFieldMaskName,
		maps.PlaceSearchFieldMaskPhotos,
		maps.PlaceSearchFieldMaskGeometry,
		maps.PlaceSearchFieldMaskFormattedAddress,
		maps.PlaceSearchFieldMaskRating,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates := make([]Candidate, 0, len(resp.Candidates))
	for _, r := range resp.Candidates {
		c := Candidate{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Rating:           r.Rating,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
		}
		for _, p := range r.Photos {
			c.PhotoReferences = append(c.PhotoReferences, p.PhotoReference)
		}
		candidates = append(candidates, c)
	}
	span.SetAttributes(attribute.Int("places.candidates", len(candidates)))
	span.SetStatus(codes.Ok, "Candidates found")
	return candidates, nil
}

func (s *ServiceImpl) find(ctx context.Context, query string, fields ...maps.PlaceSearchFieldMask) (maps.FindPlaceFromTextResponse, error) {
	resp, err := s.finder.FindPlaceFromText(ctx, &maps.FindPlaceFromTextRequest{
		Input:     query,
		InputType: maps.FindPlaceFromTextInputTypeTextQuery,
		Fields:    fields,
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.PlaceLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err != nil {
		s.logger.ErrorContext(ctx, "Places API lookup failed", slog.String("query", query), slog.Any("error", err))
		return maps.FindPlaceFromTextResponse{}, fmt.Errorf("places api error: %w", err)
	}
	return resp, nil
}
