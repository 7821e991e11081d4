package api

// Response represents a generic API response for success or error messages.
type Response struct {
	Success   bool   `json:"success" example:"true"`
	Message   string `json:"message,omitempty" example:"Operation successful"`
	Error     string `json:"error,omitempty" example:"Resource not found"`
	Code      string `json:"code,omitempty" example:"InvalidItineraryFormat"`
	RequestID string `json:"request_id,omitempty"`
}
