package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	defaultTemperature = 0.7
	defaultTimeout     = 45 * time.Second
)

// RequestClient performs the single network round trip of a generation.
// Implementations return the raw model text; every failure wraps ErrGenerationFailed
// (or ErrServiceUnavailable when nothing is configured). No retries.
type RequestClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ContentGenerator is the slice of generativeAI.AIClient the request client needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
	Model() string
}

var _ RequestClient = (*GeminiRequestClient)(nil)

type GeminiRequestClient struct {
	generator   ContentGenerator
	temperature float32
	timeout     time.Duration
}

// NewGeminiRequestClient wraps generator. Non-positive temperature or timeout
// fall back to 0.7 and 45s.
func NewGeminiRequestClient(generator ContentGenerator, temperature float32, timeout time.Duration) *GeminiRequestClient {
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GeminiRequestClient{
		generator:   generator,
		temperature: temperature,
		timeout:     timeout,
	}
}

// GenerationConfig is the structured-output configuration attached to every request.
func (c *GeminiRequestClient) GenerationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
		ResponseSchema:   ItinerarySchema(),
	}
}

func (c *GeminiRequestClient) Model() string {
	return c.generator.Model()
}

func (c *GeminiRequestClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generator.GenerateContent(ctx, prompt, c.GenerationConfig())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", generationFailed(fmt.Errorf("timed out after %s: %w", c.timeout, err))
		}
		return "", generationFailed(err)
	}
	return text, nil
}

var _ RequestClient = unavailableClient{}

// unavailableClient stands in when the generator could not be configured.
// It fails immediately without touching the network.
type unavailableClient struct {
	reason error
}

// NewUnavailableClient returns a RequestClient whose every call fails with
// ErrServiceUnavailable wrapping reason.
func NewUnavailableClient(reason error) RequestClient {
	return unavailableClient{reason: reason}
}

func (u unavailableClient) Generate(context.Context, string) (string, error) {
	if u.reason == nil {
		return "", ErrServiceUnavailable
	}
	return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, u.reason)
}

func (u unavailableClient) Model() string {
	return "unavailable"
}
