package booking

import (
	"net/url"
	"strings"
)

const (
	googleFlightsBase = "https://www.google.com/flights?hl=en"
	googleSearchBase  = "https://www.google.com/search?q="
	googleHotelsBase  = "https://www.google.com/travel/hotels"
	IRCTCURL          = "https://www.irctc.co.in"
	RedBusURL         = "https://www.redbus.in"
)

// componentEscaper turns QueryEscape output into URI component encoding:
// spaces as %20 and !'()* left literal.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escape(s string) string {
	return componentEscaper.Replace(url.QueryEscape(s))
}

// GoogleFlightsURL deep-links a flight search. The date is optional; without
// an origin or destination only the landing page is returned.
func GoogleFlightsURL(origin, destination, date string) string {
	if origin == "" || destination == "" {
		return googleFlightsBase
	}
	u := googleFlightsBase + "#flt=" + escape(origin) + "." + escape(destination)
	if date != "" {
		u += "." + escape(date)
	}
	return u
}

func searchURL(parts ...string) string {
	return googleSearchBase + escape(strings.TrimSpace(strings.Join(parts, " ")))
}

// EaseMyTripFlightSearchURL is a site-restricted web search for flights.
func EaseMyTripFlightSearchURL(origin, destination, date string) string {
	parts := []string{"site:easemytrip.com", "flights", origin, "to", destination}
	if date != "" {
		parts = append(parts, date)
	}
	return searchURL(parts...)
}

// EaseMyTripHotelSearchURL is a site-restricted web search for hotels. Dates
// are only added when both are present.
func EaseMyTripHotelSearchURL(location, checkin, checkout string) string {
	parts := []string{"site:easemytrip.com", "hotels", location}
	if checkin != "" && checkout != "" {
		parts = append(parts, checkin, checkout)
	}
	return searchURL(parts...)
}

func GoogleHotelsURL(location string) string {
	if location == "" {
		return googleHotelsBase
	}
	return googleSearchBase + escape(location+" hotels")
}

// Links is the set of booking shortcuts offered for a trip.
type Links struct {
	GoogleFlights       string `json:"googleFlights"`
	EaseMyTripFlights   string `json:"easeMyTripFlights"`
	GoogleHotels        string `json:"googleHotels"`
	EaseMyTripHotels    string `json:"easeMyTripHotels"`
	ReturnGoogleFlights string `json:"returnGoogleFlights,omitempty"`
}

type LinksRequest struct {
	Origin      string
	Destination string
	Date        string
	ReturnDate  string
	Location    string
	Checkin     string
	Checkout    string
}

// Build fills every link for req. Location defaults to the destination and
// the outbound flight date to the check-in date.
func Build(req LinksRequest) Links {
	location := req.Location
	if location == "" {
		location = req.Destination
	}
	if req.Date == "" {
		req.Date = req.Checkin
	}
	links := Links{
		GoogleFlights:     GoogleFlightsURL(req.Origin, req.Destination, req.Date),
		EaseMyTripFlights: EaseMyTripFlightSearchURL(req.Origin, req.Destination, req.Date),
		GoogleHotels:      GoogleHotelsURL(location),
		EaseMyTripHotels:  EaseMyTripHotelSearchURL(location, req.Checkin, req.Checkout),
	}
	if req.ReturnDate != "" {
		links.ReturnGoogleFlights = GoogleFlightsURL(req.Destination, req.Origin, req.ReturnDate)
	}
	return links
}
