package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

var ErrUnsupportedProvider = errors.New("unsupported chat provider")

// CompletionOptions tune one completion call.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// Provider completes a single-turn prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Name() string
}

// ContentGenerator is satisfied by generativeAI.AIClient.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
	Model() string
}

var (
	_ Provider = (*GeminiProvider)(nil)
	_ Provider = (*OpenAIProvider)(nil)
)

type GeminiProvider struct {
	generator ContentGenerator
}

func NewGeminiProvider(generator ContentGenerator) *GeminiProvider {
	return &GeminiProvider{generator: generator}
}

func (p *GeminiProvider) Name() string {
	return "gemini/" + p.generator.Model()
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return p.generator.GenerateContent(ctx, prompt, cfg)
}

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider talks to the OpenAI chat completions API. baseURL is only
// set in tests and for compatible gateways.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAIProvider) Name() string {
	return "openai/" + p.model
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ProviderConfig selects a provider by name: "gemini", "openai" or "none".
type ProviderConfig struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewProvider returns nil, nil when no provider can be used, in which case the
// service answers from its deterministic fallbacks.
func NewProvider(cfg ProviderConfig, gemini ContentGenerator) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		if gemini == nil {
			return nil, nil
		}
		return NewGeminiProvider(gemini), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
