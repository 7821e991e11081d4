package itinerary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// BuildPrompt renders the generation instruction for prefs. It trusts that
// prefs came from types.NewTripPreferences and performs no validation.
func BuildPrompt(prefs types.TripPreferences) string {
	duration := prefs.Duration()
	budget := strconv.FormatFloat(prefs.Budget, 'f', -1, 64)

	return fmt.Sprintf(`Generate a personalized travel itinerary.
- Trip Details:
  - From: %[1]s, India
  - To: %[2]s, India
  - Start Date: %[3]s
  - End Date: %[4]s
  - Duration: %[5]d days (start and end date included)
  - Number of People: %[6]d
- Budget and Interests:
  - Total Budget: Approximately %[7]s INR for %[6]d people.
  - Traveler Interests: %[8]s.

The itinerary must include the following sections:
1.  **Flight Details**: Suggest one plausible round-trip flight from %[1]s to %[2]s. Include a realistic airline, flight number, departure and arrival airports, ISO-8601 departure and arrival times, and the estimated cost for %[6]d people.
2.  **Weather Forecast**: Provide a weather forecast for %[2]s for each of the %[5]d days of the trip. Include an overall summary and a brief daily forecast (high/low temps in Celsius, conditions), numbered from day 1.
3.  **Daily Plans**: A detailed day-by-day plan with exactly %[5]d entries numbered 1 to %[5]d. For each day, provide:
    - Specific activities with times, descriptions, costs, and mappable locations.
    - An accommodation suggestion (e.g., a specific hotel name) with a description, cost, and mappable location.
    - Local transportation and food suggestions with estimated costs.

Constraints:
- All costs must be in Indian Rupees (INR) and the currency field must be "INR".
- Costs are non-negative numbers without currency symbols.
- The total estimated cost must be a reasonable aggregation of all individual costs (flights, accommodation, activities, etc.).
- The 'location' field for activities and accommodation MUST be a specific, real-world address or place name that can be found on a map.
- The plan should be practical, creative, and adhere to the budget and interests provided.
- Return ONLY the JSON object described by the response schema, with no markdown or commentary.`,
		prefs.Source,
		prefs.Destination,
		prefs.StartDateString(),
		prefs.EndDateString(),
		duration,
		prefs.NumPeople,
		budget,
		strings.Join(prefs.Interests, ", "),
	)
}
