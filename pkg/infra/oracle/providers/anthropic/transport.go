package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mitchellh/mapstructure"
)

const (
	ProviderName = "anthropic"
	DefaultModel = "claude-3-haiku-20240307"
)

type Options struct {
	BaseURL string `mapstructure:"base_url"`
}

type Transport struct {
	client anthropic.Client
}

func NewTransport(apiKey string, settings map[string]interface{}) (*Transport, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	var options Options
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &options); err != nil {
			return nil, fmt.Errorf("invalid anthropic options: %w", err)
		}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if options.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(options.BaseURL))
	}
	return &Transport{client: anthropic.NewClient(opts...)}, nil
}

func (t *Transport) Name() string {
	return ProviderName
}

func (t *Transport) Send(ctx context.Context, req oracle.Request) (string, error) {
	model := anthropic.Model(DefaultModel)
	if req.Model != "" {
		model = anthropic.Model(req.Model)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = oracle.DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
		},
		System: []anthropic.TextBlockParam{
			{
				Text: req.SystemPrompt,
				Type: "text",
			},
		},
		Temperature: anthropic.Float(req.Temperature),
	}

	message, err := t.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", oracle.NewStatusError(ProviderName, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	for _, content := range message.Content {
		if content.Type == "text" && strings.TrimSpace(content.Text) != "" {
			return strings.TrimSpace(content.Text), nil
		}
	}
	return "", fmt.Errorf("no text content returned")
}
