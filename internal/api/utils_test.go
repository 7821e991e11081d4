package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONBody(t *testing.T) {
	type body struct {
		Place string `json:"place"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{name: "valid", payload: `{"place":"Goa"}`},
		{name: "empty", payload: ``, wantErr: "body must not be empty"},
		{name: "malformed", payload: `{"place":`, wantErr: "badly-formed JSON"},
		{name: "wrong type", payload: `{"place":1}`, wantErr: `incorrect JSON type for field "place"`},
		{name: "unknown field", payload: `{"city":"Goa"}`, wantErr: `unknown key "city"`},
		{name: "trailing data", payload: `{"place":"Goa"}{}`, wantErr: "single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()

			var dst body
			err := DecodeJSONBody(w, req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Goa", dst.Place)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestErrorResponseWithCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	ErrorResponseWithCode(w, req, http.StatusUnprocessableEntity, "InvalidItineraryFormat", "bad plan")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "bad plan", resp.Error)
	assert.Equal(t, "InvalidItineraryFormat", resp.Code)
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Origin    string   `json:"origin" validate:"required"`
		NumPeople int      `json:"numPeople" validate:"min=1"`
		Budget    float64  `json:"budget" validate:"gt=0"`
		Interests []string `json:"interests" validate:"required,min=1"`
	}

	assert.NoError(t, ValidateStruct(req{Origin: "Mumbai", NumPeople: 2, Budget: 1, Interests: []string{"Foodie"}}))

	err := ValidateStruct(req{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin is required")
	assert.Contains(t, err.Error(), "numPeople must be at least 1")
	assert.Contains(t, err.Error(), "budget must be greater than 0")
	assert.Contains(t, err.Error(), "interests is required")
}

func TestDecodeValid(t *testing.T) {
	type body struct {
		Origin string `json:"origin" validate:"required"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"origin":""}`))
	var dst body
	err := DecodeValid(httptest.NewRecorder(), req, &dst)
	require.Error(t, err)
	assert.Equal(t, "origin is required", err.Error())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"origin":"Mumbai"}`))
	require.NoError(t, DecodeValid(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Mumbai", dst.Origin)
}
