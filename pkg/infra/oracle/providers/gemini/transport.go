package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.0-flash"
)

type Options struct {
	BaseURL string `mapstructure:"base_url"`
}

type Transport struct {
	genaiClient *genai.Client
}

func NewTransport(ctx context.Context, apiKey string, settings map[string]interface{}) (*Transport, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	var options Options
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &options); err != nil {
			return nil, fmt.Errorf("invalid gemini options: %w", err)
		}
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: options.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Transport{genaiClient: genaiClient}, nil
}

func (t *Transport) Name() string {
	return ProviderName
}

func (t *Transport) Send(ctx context.Context, req oracle.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := float32(req.Temperature)

	result, err := t.genaiClient.Models.GenerateContent(
		ctx,
		model,
		genai.Text(req.Input),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: req.SystemPrompt}},
				Role:  "system",
			},
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("no text content returned")
	}
	return text, nil
}
