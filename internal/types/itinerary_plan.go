package types

// ItineraryPlan is the typed result of one successful generation.
// Field names on the wire match the structured-output schema sent to the model.
type ItineraryPlan struct {
	TripTitle          string          `json:"tripTitle"`
	TotalEstimatedCost float64         `json:"totalEstimatedCost"`
	Currency           string          `json:"currency"`
	FlightDetails      FlightDetails   `json:"flightDetails"`
	WeatherForecast    WeatherForecast `json:"weatherForecast"`
	DailyPlans         []DailyPlan     `json:"dailyPlans"`
}

type FlightDetails struct {
	Airline          string  `json:"airline"`
	FlightNumber     string  `json:"flightNumber"`
	DepartureAirport string  `json:"departureAirport"`
	ArrivalAirport   string  `json:"arrivalAirport"`
	DepartureTime    string  `json:"departureTime"`
	ArrivalTime      string  `json:"arrivalTime"`
	EstimatedCost    float64 `json:"estimatedCost"`
}

type WeatherForecast struct {
	Summary string         `json:"summary"`
	Daily   []DailyWeather `json:"daily"`
}

// DailyWeather temperatures are in Celsius.
type DailyWeather struct {
	Day         int     `json:"day"`
	HighTemp    float64 `json:"highTemp"`
	LowTemp     float64 `json:"lowTemp"`
	Description string  `json:"description"`
}

type DailyPlan struct {
	Day           int           `json:"day"`
	Title         string        `json:"title"`
	Activities    []Activity    `json:"activities"`
	Accommodation Accommodation `json:"accommodation"`
	Transport     Transport     `json:"transport"`
	Food          Food          `json:"food"`
}

type Activity struct {
	Time          string  `json:"time"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
	Location      string  `json:"location"`
}

type Accommodation struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
	Location      string  `json:"location"`
}

type Transport struct {
	Mode          string  `json:"mode"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
}

type Food struct {
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// ActivityCost sums the estimated cost of the day's activities.
func (d DailyPlan) ActivityCost() float64 {
	var total float64
	for _, a := range d.Activities {
		total += a.EstimatedCost
	}
	return total
}

// Cost is everything itemised for the day: activities, lodging, transport and food.
func (d DailyPlan) Cost() float64 {
	return d.ActivityCost() + d.Accommodation.EstimatedCost + d.Transport.EstimatedCost + d.Food.EstimatedCost
}

// ItemisedCost is the flight plus every daily cost. The model's TotalEstimatedCost
// is expected to be in the same ballpark.
func (p ItineraryPlan) ItemisedCost() float64 {
	total := p.FlightDetails.EstimatedCost
	for _, d := range p.DailyPlans {
		total += d.Cost()
	}
	return total
}

// Locations returns every mappable location in the plan, in day order, without duplicates.
func (p ItineraryPlan) Locations() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(loc string) {
		if loc == "" {
			return
		}
		if _, ok := seen[loc]; ok {
			return
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	for _, d := range p.DailyPlans {
		for _, a := range d.Activities {
			add(a.Location)
		}
		add(d.Accommodation.Location)
	}
	return out
}
