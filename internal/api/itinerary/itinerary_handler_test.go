package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GenerateItinerary(ctx context.Context, prefs types.TripPreferences) (*Result, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

const goaRequest = `{
	"source": "Mumbai",
	"destination": "Goa",
	"startDate": "2024-01-01",
	"endDate": "2024-01-03",
	"numPeople": 2,
	"budget": 50000,
	"interests": ["Relaxation"]
}`

func newTestRouter(h *HandlerImpl) http.Handler {
	r := chi.NewRouter()
	r.Post("/itinerary", h.GenerateItinerary)
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Post("/sessions/{sessionID}/submit", h.SubmitSession)
	r.Post("/sessions/{sessionID}/reset", h.ResetSession)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.Response {
	t.Helper()
	var resp api.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandlerImpl_GenerateItinerary(t *testing.T) {
	logger := slog.Default()
	prefs := goaPreferences(t)

	t.Run("success", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GenerateItinerary", mock.Anything, prefs).
			Return(&Result{DurationDays: 3, Model: "gemini-2.5-flash"}, nil).Once()
		router := newTestRouter(NewHandlerImpl(svc, NewSessionManager(svc, time.Hour, logger), logger))

		rr := do(t, router, http.MethodPost, "/itinerary", goaRequest)
		assert.Equal(t, http.StatusOK, rr.Code)

		var result Result
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 3, result.DurationDays)
		svc.AssertExpectations(t)
	})

	t.Run("invalid preferences never reach the service", func(t *testing.T) {
		bodies := map[string]string{
			"malformed json":   `{"source":`,
			"missing source":   `{"destination":"Goa","startDate":"2024-01-01","endDate":"2024-01-03","numPeople":2,"budget":1,"interests":["Foodie"]}`,
			"end before start": `{"source":"Mumbai","destination":"Goa","startDate":"2024-01-03","endDate":"2024-01-01","numPeople":2,"budget":1,"interests":["Foodie"]}`,
			"zero people":      `{"source":"Mumbai","destination":"Goa","startDate":"2024-01-01","endDate":"2024-01-03","numPeople":0,"budget":1,"interests":["Foodie"]}`,
			"unknown interest": `{"source":"Mumbai","destination":"Goa","startDate":"2024-01-01","endDate":"2024-01-03","numPeople":2,"budget":1,"interests":["Skiing"]}`,
		}
		svc := new(MockService)
		router := newTestRouter(NewHandlerImpl(svc, NewSessionManager(svc, time.Hour, logger), logger))

		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				rr := do(t, router, http.MethodPost, "/itinerary", body)
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.False(t, decodeError(t, rr).Success)
			})
		}
		svc.AssertNotCalled(t, "GenerateItinerary", mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name     string
		err      error
		wantCode int
		wantKind ErrorKind
	}{
		{"invalid format", &FormatError{Reason: "response is not valid JSON"}, http.StatusUnprocessableEntity, KindInvalidItineraryFormat},
		{"generation failed", generationFailed(context.DeadlineExceeded), http.StatusBadGateway, KindGenerationFailed},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, KindServiceUnavailable},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("GenerateItinerary", mock.Anything, prefs).Return(nil, tc.err).Once()
			router := newTestRouter(NewHandlerImpl(svc, NewSessionManager(svc, time.Hour, logger), logger))

			rr := do(t, router, http.MethodPost, "/itinerary", goaRequest)
			assert.Equal(t, tc.wantCode, rr.Code)
			assert.Equal(t, string(tc.wantKind), decodeError(t, rr).Code)
		})
	}
}

func TestHandlerImpl_SessionLifecycle(t *testing.T) {
	logger := slog.Default()
	gen := newGatedGenerator(&Result{DurationDays: 3}, nil)
	sessions := NewSessionManager(gen, time.Hour, logger)
	router := newTestRouter(NewHandlerImpl(new(MockService), sessions, logger))

	rr := do(t, router, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, StateIdle, created.State)
	base := "/sessions/" + created.SessionID.String()

	rr = do(t, router, http.MethodPost, base+"/submit", goaRequest)
	require.Equal(t, http.StatusAccepted, rr.Code)
	var submitted Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &submitted))
	assert.Equal(t, StateGenerating, submitted.State)

	rr = do(t, router, http.MethodPost, base+"/submit", goaRequest)
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(gen.release)
	assert.Eventually(t, func() bool {
		rr := do(t, router, http.MethodGet, base, "")
		var snap Snapshot
		_ = json.Unmarshal(rr.Body.Bytes(), &snap)
		return snap.State == StateReady
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), gen.calls.Load())

	rr = do(t, router, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var reset Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reset))
	assert.Equal(t, StateIdle, reset.State)
}

func TestHandlerImpl_SessionLookup(t *testing.T) {
	logger := slog.Default()
	svc := new(MockService)
	router := newTestRouter(NewHandlerImpl(svc, NewSessionManager(svc, time.Hour, logger), logger))

	rr := do(t, router, http.MethodGet, "/sessions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/sessions/6f1c1f7e-8d1b-4b5e-9a43-2b8f0d0c8a11", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
