package itinerary

import "google.golang.org/genai"

// ItinerarySchema is the structured-output schema sent with every generation
// request. ParseItinerary validates responses by walking this same value, so
// the request contract and the accepted payloads stay in lockstep with
// types.ItineraryPlan.
func ItinerarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tripTitle":          {Type: genai.TypeString},
			"totalEstimatedCost": cost("Total estimated cost of the whole trip in INR"),
			"currency":           {Type: genai.TypeString, Description: "Always INR"},
			"flightDetails":      flightSchema(),
			"weatherForecast":    weatherSchema(),
			"dailyPlans": {
				Type:  genai.TypeArray,
				Items: dailyPlanSchema(),
			},
		},
		Required:         []string{"tripTitle", "totalEstimatedCost", "currency", "flightDetails", "weatherForecast", "dailyPlans"},
		PropertyOrdering: []string{"tripTitle", "totalEstimatedCost", "currency", "flightDetails", "weatherForecast", "dailyPlans"},
	}
}

func cost(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Minimum: genai.Ptr[float64](0), Description: description}
}

func day() *genai.Schema {
	return &genai.Schema{Type: genai.TypeInteger, Minimum: genai.Ptr[float64](1), Description: "Day number starting at 1"}
}

func location() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: "A mappable address or name of the place"}
}

func flightSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"airline":          {Type: genai.TypeString},
			"flightNumber":     {Type: genai.TypeString},
			"departureAirport": {Type: genai.TypeString},
			"arrivalAirport":   {Type: genai.TypeString},
			"departureTime":    {Type: genai.TypeString, Description: "ISO-8601 date-time"},
			"arrivalTime":      {Type: genai.TypeString, Description: "ISO-8601 date-time"},
			"estimatedCost":    cost("Round-trip cost for the whole party in INR"),
		},
		Required: []string{"airline", "flightNumber", "departureAirport", "arrivalAirport", "departureTime", "arrivalTime", "estimatedCost"},
	}
}

func weatherSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"daily": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"day":         day(),
						"highTemp":    {Type: genai.TypeNumber, Description: "High temperature in Celsius"},
						"lowTemp":     {Type: genai.TypeNumber, Description: "Low temperature in Celsius"},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"day", "highTemp", "lowTemp", "description"},
				},
			},
		},
		Required: []string{"summary", "daily"},
	}
}

func dailyPlanSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"day":   day(),
			"title": {Type: genai.TypeString},
			"activities": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"time":          {Type: genai.TypeString},
						"description":   {Type: genai.TypeString},
						"estimatedCost": cost(""),
						"location":      location(),
					},
					Required: []string{"time", "description", "estimatedCost", "location"},
				},
			},
			"accommodation": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":          {Type: genai.TypeString},
					"description":   {Type: genai.TypeString},
					"estimatedCost": cost(""),
					"location":      location(),
				},
				Required: []string{"name", "description", "estimatedCost", "location"},
			},
			"transport": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"mode":          {Type: genai.TypeString},
					"description":   {Type: genai.TypeString},
					"estimatedCost": cost(""),
				},
				Required: []string{"mode", "description", "estimatedCost"},
			},
			"food": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"description":   {Type: genai.TypeString},
					"estimatedCost": cost(""),
				},
				Required: []string{"description", "estimatedCost"},
			},
		},
		Required: []string{"day", "title", "activities", "accommodation", "transport", "food"},
	}
}
