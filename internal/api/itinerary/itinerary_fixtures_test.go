package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// MockRequestClient stands in for the model round trip.
type MockRequestClient struct {
	mock.Mock
}

func (m *MockRequestClient) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockRequestClient) Model() string {
	return "gemini-2.5-flash"
}

// MockInteractionRepo records saved interactions.
type MockInteractionRepo struct {
	mock.Mock
}

func (m *MockInteractionRepo) SaveInteraction(ctx context.Context, interaction Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

func goaPreferences(t *testing.T) types.TripPreferences {
	t.Helper()
	prefs, err := types.NewTripPreferences("Mumbai", "Goa", "2024-01-01", "2024-01-03", 2, 50000, []string{"Relaxation"})
	require.NoError(t, err)
	return prefs
}

// planDoc builds a schema-valid itinerary document with the given days.
// Each day itemises 7000 INR and the flight 12000.
func planDoc(days []int, total float64) map[string]any {
	daily := make([]any, 0, len(days))
	weather := make([]any, 0, len(days))
	for _, d := range days {
		daily = append(daily, map[string]any{
			"day":   d,
			"title": fmt.Sprintf("Day %d in Goa", d),
			"activities": []any{
				map[string]any{
					"time":          "10:00",
					"description":   "Beach morning",
					"estimatedCost": 1000,
					"location":      "Baga Beach, Goa",
				},
			},
			"accommodation": map[string]any{
				"name":          "Taj Fort Aguada",
				"description":   "Sea-facing resort",
				"estimatedCost": 4000,
				"location":      "Sinquerim, Candolim, Goa",
			},
			"transport": map[string]any{
				"mode":          "Scooter",
				"description":   "Rented scooter",
				"estimatedCost": 500,
			},
			"food": map[string]any{
				"description":   "Goan thali and seafood",
				"estimatedCost": 1500,
			},
		})
		weather = append(weather, map[string]any{
			"day":         d,
			"highTemp":    32,
			"lowTemp":     22,
			"description": "Sunny",
		})
	}
	return map[string]any{
		"tripTitle":          "Relaxing Goa Getaway",
		"totalEstimatedCost": total,
		"currency":           "INR",
		"flightDetails": map[string]any{
			"airline":          "IndiGo",
			"flightNumber":     "6E-5301",
			"departureAirport": "Mumbai (BOM)",
			"arrivalAirport":   "Goa (GOI)",
			"departureTime":    "2024-01-01T07:00:00+05:30",
			"arrivalTime":      "2024-01-01T08:15:00+05:30",
			"estimatedCost":    12000,
		},
		"weatherForecast": map[string]any{
			"summary": "Warm and dry",
			"daily":   weather,
		},
		"dailyPlans": daily,
	}
}

func encode(t *testing.T, doc any) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

func goaPlanJSON(t *testing.T) string {
	t.Helper()
	return encode(t, planDoc([]int{1, 2, 3}, 45000))
}
