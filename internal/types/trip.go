package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for trip dates.
const DateLayout = "2006-01-02"

var ErrInvalidPreferences = errors.New("invalid trip preferences")

// InterestOptions is the fixed vocabulary of interest tags a traveller can pick from.
var InterestOptions = []string{
	"Cultural Heritage",
	"Nightlife",
	"Adventure",
	"Foodie",
	"Relaxation",
	"Nature & Wildlife",
	"Shopping",
}

// TripPreferences is the validated input for one itinerary generation.
// Build it with NewTripPreferences; the zero value is not valid.
type TripPreferences struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	NumPeople   int       `json:"numPeople"`
	Budget      float64   `json:"budget"`
	Interests   []string  `json:"interests"`
}

func invalidPreferences(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPreferences, fmt.Sprintf(format, args...))
}

// NewTripPreferences validates the raw form values and returns the preference model.
func NewTripPreferences(source, destination, startDate, endDate string, numPeople int, budget float64, interests []string) (TripPreferences, error) {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)
	if source == "" {
		return TripPreferences{}, invalidPreferences("source is required")
	}
	if destination == "" {
		return TripPreferences{}, invalidPreferences("destination is required")
	}

	start, err := time.Parse(DateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return TripPreferences{}, invalidPreferences("startDate %q is not a YYYY-MM-DD date", startDate)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(endDate))
	if err != nil {
		return TripPreferences{}, invalidPreferences("endDate %q is not a YYYY-MM-DD date", endDate)
	}
	if end.Before(start) {
		return TripPreferences{}, invalidPreferences("endDate must not be before startDate")
	}

	if numPeople < 1 {
		return TripPreferences{}, invalidPreferences("numPeople must be at least 1")
	}
	if budget <= 0 {
		return TripPreferences{}, invalidPreferences("budget must be positive")
	}

	if len(interests) == 0 {
		return TripPreferences{}, invalidPreferences("at least one interest is required")
	}
	tags := make([]string, 0, len(interests))
	for _, interest := range interests {
		interest = strings.TrimSpace(interest)
		if !slices.Contains(InterestOptions, interest) {
			return TripPreferences{}, invalidPreferences("unknown interest %q", interest)
		}
		if !slices.Contains(tags, interest) {
			tags = append(tags, interest)
		}
	}

	return TripPreferences{
		Source:      source,
		Destination: destination,
		StartDate:   start,
		EndDate:     end,
		NumPeople:   numPeople,
		Budget:      budget,
		Interests:   tags,
	}, nil
}

// Duration is the trip length in days, counting both the start and end date.
func (p TripPreferences) Duration() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// StartDateString returns the start date in DateLayout.
func (p TripPreferences) StartDateString() string {
	return p.StartDate.Format(DateLayout)
}

// EndDateString returns the end date in DateLayout.
func (p TripPreferences) EndDateString() string {
	return p.EndDate.Format(DateLayout)
}

// TripRequest is the JSON body a client submits to plan a trip.
type TripRequest struct {
	Source      string   `json:"source" validate:"required" example:"Mumbai"`
	Destination string   `json:"destination" validate:"required" example:"Goa"`
	StartDate   string   `json:"startDate" validate:"required,datetime=2006-01-02" example:"2024-01-01"`
	EndDate     string   `json:"endDate" validate:"required,datetime=2006-01-02" example:"2024-01-03"`
	NumPeople   int      `json:"numPeople" validate:"min=1" example:"2"`
	Budget      float64  `json:"budget" validate:"gt=0" example:"50000"`
	Interests   []string `json:"interests" validate:"required,min=1,dive,required" example:"Relaxation"`
}

// Preferences converts the request into the validated preference model.
func (r TripRequest) Preferences() (TripPreferences, error) {
	return NewTripPreferences(r.Source, r.Destination, r.StartDate, r.EndDate, r.NumPeople, r.Budget, r.Interests)
}
