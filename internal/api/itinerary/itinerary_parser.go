package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// ParseItinerary turns raw model output into a plan. The payload must satisfy
// ItinerarySchema exactly: every required field present, non-null and of the
// declared primitive type, costs non-negative, day numbers positive and unique.
// Anything else is a *FormatError.
func ParseItinerary(raw string) (*types.ItineraryPlan, error) {
	text := cleanJSONResponse(raw)
	if text == "" {
		return nil, &FormatError{Reason: "empty response", Raw: raw}
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Reason: "response is not valid JSON", Raw: raw, Err: err}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &FormatError{Reason: "response contains data after the JSON object", Raw: raw, Err: err}
	}

	if path, reason := conforms(ItinerarySchema(), doc, "$"); reason != "" {
		return nil, &FormatError{Path: path, Reason: reason, Raw: raw}
	}

	var plan types.ItineraryPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, &FormatError{Reason: "response does not match the itinerary model", Raw: raw, Err: err}
	}

	if path, reason := checkInvariants(&plan); reason != "" {
		return nil, &FormatError{Path: path, Reason: reason, Raw: raw}
	}

	return &plan, nil
}

// cleanJSONResponse trims whitespace and a surrounding markdown code fence.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	return strings.TrimSpace(response)
}

// conforms reports the first place where value violates schema, as a JSON path
// and a reason. An empty reason means value conforms.
func conforms(schema *genai.Schema, value any, path string) (string, string) {
	switch schema.Type {
	case genai.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return path, "expected object, got " + jsonKind(value)
		}
		for _, name := range schema.Required {
			if v, present := obj[name]; !present || v == nil {
				return path + "." + name, "required field is missing"
			}
		}
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		// The typed decode folds case, so a near-miss key would override
		// the declared one after this walk approved it.
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, declared := schema.Properties[key]; declared {
				continue
			}
			for _, name := range names {
				if strings.EqualFold(key, name) {
					return path + "." + key, fmt.Sprintf("field %q differs from %q only in case", key, name)
				}
			}
		}
		for _, name := range names {
			v, present := obj[name]
			if !present || v == nil {
				continue
			}
			if p, reason := conforms(schema.Properties[name], v, path+"."+name); reason != "" {
				return p, reason
			}
		}

	case genai.TypeArray:
		arr, ok := value.([]any)
		if !ok {
			return path, "expected array, got " + jsonKind(value)
		}
		if schema.Items == nil {
			return "", ""
		}
		for i, item := range arr {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return itemPath, "array element is null"
			}
			if p, reason := conforms(schema.Items, item, itemPath); reason != "" {
				return p, reason
			}
		}

	case genai.TypeString:
		if _, ok := value.(string); !ok {
			return path, "expected string, got " + jsonKind(value)
		}

	case genai.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return path, "expected boolean, got " + jsonKind(value)
		}

	case genai.TypeNumber, genai.TypeInteger:
		num, ok := value.(json.Number)
		if !ok {
			return path, "expected number, got " + jsonKind(value)
		}
		f, err := num.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return path, fmt.Sprintf("number %s is out of range", num)
		}
		if schema.Type == genai.TypeInteger {
			if _, err := num.Int64(); err != nil {
				return path, fmt.Sprintf("expected integer, got %s", num)
			}
		}
		if schema.Minimum != nil && f < *schema.Minimum {
			return path, fmt.Sprintf("value %s is below the minimum of %g", num, *schema.Minimum)
		}
		if schema.Maximum != nil && f > *schema.Maximum {
			return path, fmt.Sprintf("value %s is above the maximum of %g", num, *schema.Maximum)
		}
	}
	return "", ""
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// checkInvariants covers the cross-field rules the schema cannot express.
func checkInvariants(plan *types.ItineraryPlan) (string, string) {
	seen := make(map[int]struct{}, len(plan.DailyPlans))
	for i, d := range plan.DailyPlans {
		if _, dup := seen[d.Day]; dup {
			return fmt.Sprintf("$.dailyPlans[%d].day", i), fmt.Sprintf("duplicate day %d", d.Day)
		}
		seen[d.Day] = struct{}{}
	}

	seen = make(map[int]struct{}, len(plan.WeatherForecast.Daily))
	for i, w := range plan.WeatherForecast.Daily {
		if _, dup := seen[w.Day]; dup {
			return fmt.Sprintf("$.weatherForecast.daily[%d].day", i), fmt.Sprintf("duplicate day %d", w.Day)
		}
		seen[w.Day] = struct{}{}
		if w.HighTemp < w.LowTemp {
			return fmt.Sprintf("$.weatherForecast.daily[%d]", i), fmt.Sprintf("highTemp %g is below lowTemp %g", w.HighTemp, w.LowTemp)
		}
	}
	return "", ""
}

// costTolerance is how far the stated total may drift below the itemised sum
// before it is flagged.
const costTolerance = 0.10

// CheckPlan returns recoverable warnings about a parsed plan. The model is not
// fully controllable, so these are surfaced to the caller rather than failing
// the generation. expectedDays is the inclusive trip duration.
func CheckPlan(plan *types.ItineraryPlan, expectedDays int) []string {
	var warnings []string

	if n := len(plan.DailyPlans); n != expectedDays {
		warnings = append(warnings, fmt.Sprintf("expected %d daily plans, got %d", expectedDays, n))
	}

	days := make([]int, 0, len(plan.DailyPlans))
	for _, d := range plan.DailyPlans {
		days = append(days, d.Day)
	}
	if !slices.IsSorted(days) {
		warnings = append(warnings, "daily plans are not in day order")
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	for i, d := range sorted {
		if d != i+1 {
			warnings = append(warnings, fmt.Sprintf("daily plan days are not contiguous from 1 (found %v)", sorted))
			break
		}
	}

	if n := len(plan.WeatherForecast.Daily); n != len(plan.DailyPlans) {
		warnings = append(warnings, fmt.Sprintf("weather forecast covers %d days, plan covers %d", n, len(plan.DailyPlans)))
	}

	if !strings.EqualFold(strings.TrimSpace(plan.Currency), "INR") {
		warnings = append(warnings, fmt.Sprintf("currency is %q, expected INR", plan.Currency))
	}

	if itemised := plan.ItemisedCost(); plan.TotalEstimatedCost < itemised*(1-costTolerance) {
		warnings = append(warnings, fmt.Sprintf("total estimated cost %.0f is below the itemised cost %.0f", plan.TotalEstimatedCost, itemised))
	}

	return warnings
}
