package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/api/booking"
	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/places"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
	"github.com/FACorreiaa/go-trip-planner/internal/router"
)

// goaPlan is a three-day plan itemising 33000 INR against a 45000 total.
const goaPlan = `{
  "tripTitle": "Relaxing Goa Getaway",
  "totalEstimatedCost": 45000,
  "currency": "INR",
  "flightDetails": {"airline": "IndiGo", "flightNumber": "6E-5301", "departureAirport": "Mumbai (BOM)",
    "arrivalAirport": "Goa (GOI)", "departureTime": "2024-01-01T07:00:00+05:30",
    "arrivalTime": "2024-01-01T08:15:00+05:30", "estimatedCost": 12000},
  "weatherForecast": {"summary": "Warm and dry", "daily": [
    {"day": 1, "highTemp": 32, "lowTemp": 22, "description": "Sunny"},
    {"day": 2, "highTemp": 31, "lowTemp": 22, "description": "Sunny"},
    {"day": 3, "highTemp": 31, "lowTemp": 21, "description": "Clear"}]},
  "dailyPlans": [
    {"day": 1, "title": "Arrival and Baga", "activities": [{"time": "10:00", "description": "Beach morning", "estimatedCost": 1000, "location": "Baga Beach, Goa"}],
     "accommodation": {"name": "Taj Fort Aguada", "description": "Sea-facing resort", "estimatedCost": 4000, "location": "Sinquerim, Candolim, Goa"},
     "transport": {"mode": "Scooter", "description": "Rented scooter", "estimatedCost": 500},
     "food": {"description": "Goan thali", "estimatedCost": 1500}},
    {"day": 2, "title": "Old Goa", "activities": [{"time": "09:30", "description": "Basilica of Bom Jesus", "estimatedCost": 1000, "location": "Old Goa"}],
     "accommodation": {"name": "Taj Fort Aguada", "description": "Sea-facing resort", "estimatedCost": 4000, "location": "Sinquerim, Candolim, Goa"},
     "transport": {"mode": "Taxi", "description": "Day cab", "estimatedCost": 500},
     "food": {"description": "Seafood at Fontainhas", "estimatedCost": 1500}},
    {"day": 3, "title": "Departure", "activities": [{"time": "08:00", "description": "Fort Aguada sunrise", "estimatedCost": 1000, "location": "Fort Aguada, Candolim"}],
     "accommodation": {"name": "Taj Fort Aguada", "description": "Late checkout", "estimatedCost": 4000, "location": "Sinquerim, Candolim, Goa"},
     "transport": {"mode": "Taxi", "description": "Airport drop", "estimatedCost": 500},
     "food": {"description": "Brunch", "estimatedCost": 1500}}
  ]
}`

var goaRequest = map[string]any{
	"source":      "Mumbai",
	"destination": "Goa",
	"startDate":   "2024-01-01",
	"endDate":     "2024-01-03",
	"numPeople":   2,
	"budget":      50000,
	"interests":   []string{"Relaxation", "Foodie"},
}

// stubClient answers every generation with a fixed payload.
type stubClient struct {
	raw   string
	calls atomic.Int32
}

func (s *stubClient) Generate(ctx context.Context, _ string) (string, error) {
	s.calls.Add(1)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	return s.raw, nil
}

func (s *stubClient) Model() string { return "stub" }

// E2ETestSuite drives the full middleware and router stack over real HTTP.
type E2ETestSuite struct {
	suite.Suite
	server  *httptest.Server
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	model   *stubClient
}

func (suite *E2ETestSuite) SetupSuite() {
	suite.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.model = &stubClient{raw: goaPlan}

	itineraryService := itinerary.NewServiceImpl(suite.model, nil, suite.logger)
	rc := &router.Config{
		ItineraryHandler: itinerary.NewHandlerImpl(itineraryService,
			itinerary.NewSessionManager(itineraryService, time.Hour, suite.logger), suite.logger),
		PlacesHandler:  places.NewHandlerImpl(places.NewServiceImpl(nil, nil, places.Config{}, suite.logger), suite.logger),
		WeatherHandler: weather.NewHandlerImpl(weather.NewServiceImpl("", "", 0, suite.logger), suite.logger),
		ChatHandler:    chat.NewHandlerImpl(chat.NewServiceImpl(nil, 0.2, 400, suite.logger), suite.logger),
		BookingHandler: booking.NewHandlerImpl(suite.logger),
	}

	suite.server = httptest.NewServer(newHTTPHandler(rc, suite.logger, 5*time.Second))
	suite.baseURL = suite.server.URL
	suite.client = &http.Client{Timeout: 10 * time.Second}
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
}

func (suite *E2ETestSuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		suite.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reqBody)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	return resp
}

func (suite *E2ETestSuite) decode(resp *http.Response, into interface{}) {
	defer resp.Body.Close()
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

// snapshot polls a session without failing the test, so it is safe inside Eventually.
func (suite *E2ETestSuite) snapshot(path string) (itinerary.Snapshot, bool) {
	var snap itinerary.Snapshot
	resp, err := suite.client.Get(suite.baseURL + path)
	if err != nil {
		return snap, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return snap, false
	}
	return snap, json.NewDecoder(resp.Body).Decode(&snap) == nil
}

// TestOneShotGeneration covers the synchronous planning endpoint.
func (suite *E2ETestSuite) TestOneShotGeneration() {
	t := suite.T()

	resp := suite.makeRequest(http.MethodPost, "/api/v1/itinerary", goaRequest)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	calls := suite.model.calls.Load()
	var result itinerary.Result
	suite.decode(resp, &result)
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.Equal(t, "Relaxing Goa Getaway", result.Plan.TripTitle)
	assert.Equal(t, 3, result.DurationDays)
	assert.Len(t, result.Plan.DailyPlans, 3)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 33000.0, result.Plan.ItemisedCost())
}

// TestSessionWorkflow walks a planner session from Idle to Ready and back.
func (suite *E2ETestSuite) TestSessionWorkflow() {
	t := suite.T()

	t.Log("Step 1: create session")
	resp := suite.makeRequest(http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var snap itinerary.Snapshot
	suite.decode(resp, &snap)
	require.Equal(t, itinerary.StateIdle, snap.State)
	sessionPath := "/api/v1/sessions/" + snap.SessionID.String()

	t.Log("Step 2: submit preferences")
	resp = suite.makeRequest(http.MethodPost, sessionPath+"/submit", goaRequest)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	suite.decode(resp, &snap)
	assert.Contains(t, []itinerary.State{itinerary.StateGenerating, itinerary.StateReady}, snap.State)

	t.Log("Step 3: poll until ready")
	require.Eventually(t, func() bool {
		current, ok := suite.snapshot(sessionPath)
		if ok {
			snap = current
		}
		return ok && snap.State == itinerary.StateReady
	}, 3*time.Second, 25*time.Millisecond)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "Goa", snap.Preferences.Destination)

	t.Log("Step 4: resubmitting a ready session is rejected")
	resp = suite.makeRequest(http.MethodPost, sessionPath+"/submit", goaRequest)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	t.Log("Step 5: reset")
	resp = suite.makeRequest(http.MethodPost, sessionPath+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reset itinerary.Snapshot
	suite.decode(resp, &reset)
	assert.Equal(t, itinerary.StateIdle, reset.State)
	assert.Nil(t, reset.Result)
}

// TestTripExtras covers the helpers a client calls after a plan is ready.
func (suite *E2ETestSuite) TestTripExtras() {
	t := suite.T()

	resp := suite.makeRequest(http.MethodPost, "/api/v1/transport-options", map[string]any{
		"origin": "Mumbai (BOM)", "destination": "Goa (GOI)", "budget": 50000, "returnDate": "2024-01-03",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var transport chat.TransportResponse
	suite.decode(resp, &transport)
	assert.Equal(t, chat.SourceFallback, transport.Source)
	assert.Len(t, transport.Options, 4)

	// trailing slash is stripped by the server middleware
	resp = suite.makeRequest(http.MethodGet, "/api/v1/booking-links/?origin=Mumbai&destination=Goa&date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var links booking.Links
	suite.decode(resp, &links)
	assert.Equal(t, booking.GoogleFlightsURL("Mumbai", "Goa", "2024-01-01"), links.GoogleFlights)
}

// TestErrorHandlingWorkflow checks error bodies carry the request ID.
func (suite *E2ETestSuite) TestErrorHandlingWorkflow() {
	t := suite.T()

	invalid := map[string]any{}
	for k, v := range goaRequest {
		invalid[k] = v
	}
	invalid["endDate"] = "2023-12-31"

	resp := suite.makeRequest(http.MethodPost, "/api/v1/itinerary", invalid)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body api.Response
	suite.decode(resp, &body)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.RequestID)

	resp = suite.makeRequest(http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = suite.makeRequest(http.MethodGet, "/api/v1/weather?lat=95&lng=73.8", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(E2ETestSuite))
}
