package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/mitchellh/mapstructure"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sirupsen/logrus"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	CompletionsAPI = "completions"
	ResponsesAPI   = "responses"

	DefaultModel           = "gpt-4o-mini"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
	DefaultBaseURL         = "https://api.openai.com/v1"
	OpenRouterBaseURL      = "https://openrouter.ai/api/v1"

	httpClientTimeout = 30 * time.Second
)

// Options are the provider specific settings under oracle.options.
type Options struct {
	API     string `mapstructure:"api"`
	BaseURL string `mapstructure:"base_url"`
}

type Transport struct {
	name       string
	apiKey     string
	options    Options
	client     openai.Client
	httpClient *http.Client
	endpoint   string
	logger     *logrus.Logger
}

// NewTransport builds a chat completions (default) or Responses API
// transport. The openrouter provider is the same wire format against the
// OpenRouter base URL.
func NewTransport(logger *logrus.Logger, provider, apiKey string, settings map[string]interface{}) (*Transport, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api key is required", provider)
	}

	var options Options
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &options); err != nil {
			return nil, fmt.Errorf("invalid %s options: %w", provider, err)
		}
	}
	if options.API == "" {
		options.API = CompletionsAPI
	}
	if options.API != CompletionsAPI && options.API != ResponsesAPI {
		return nil, fmt.Errorf("unsupported API type: %s", options.API)
	}
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
		if provider == ProviderOpenRouter {
			options.BaseURL = OpenRouterBaseURL
		}
	}
	options.BaseURL = strings.TrimSuffix(options.BaseURL, "/")

	return &Transport{
		name:    provider,
		apiKey:  apiKey,
		options: options,
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(options.BaseURL+"/"),
			option.WithMaxRetries(0),
		),
		httpClient: &http.Client{Timeout: httpClientTimeout},
		endpoint:   options.BaseURL + "/responses",
		logger:     logger,
	}, nil
}

func (t *Transport) SetEndpoint(endpoint string) {
	t.endpoint = endpoint
}

func (t *Transport) Name() string {
	return t.name
}

func (t *Transport) Send(ctx context.Context, req oracle.Request) (string, error) {
	if req.Model == "" {
		req.Model = DefaultModel
		if t.name == ProviderOpenRouter {
			req.Model = DefaultOpenRouterModel
		}
	}
	if t.options.API == ResponsesAPI {
		return t.callResponsesAPI(ctx, req)
	}
	return t.callCompletionsAPI(ctx, req)
}

func (t *Transport) callCompletionsAPI(ctx context.Context, req oracle.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.Input),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", oracle.NewStatusError(t.name, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%s request failed: %w", t.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completions returned")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion contained no text")
	}
	return content, nil
}

type responsesTextFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type responsesText struct {
	Format responsesTextFormat `json:"format"`
}

type responsesRequest struct {
	Model           string        `json:"model"`
	Input           string        `json:"input"`
	Instructions    string        `json:"instructions"`
	Temperature     float64       `json:"temperature"`
	MaxOutputTokens int           `json:"max_output_tokens,omitempty"`
	Text            responsesText `json:"text"`
}

type responsesResponse struct {
	OutputText string           `json:"output_text"`
	Output     []responseOutput `json:"output"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (t *Transport) callResponsesAPI(ctx context.Context, req oracle.Request) (string, error) {
	request := responsesRequest{
		Model:           req.Model,
		Input:           req.Input,
		Instructions:    req.SystemPrompt,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
		Text: responsesText{
			Format: responsesTextFormat{
				Type:   "json_schema",
				Name:   "classification",
				Schema: oracle.ResponseSchema,
				Strict: true,
			},
		},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", oracle.NewStatusError(t.name, resp.StatusCode, errors.New(string(body)))
	}

	var parsed responsesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	responseText := strings.TrimSpace(parsed.OutputText)
	if responseText == "" {
		for _, out := range parsed.Output {
			for _, content := range out.Content {
				if content.Type == "output_text" && strings.TrimSpace(content.Text) != "" {
					responseText = strings.TrimSpace(content.Text)
					break
				}
			}
			if responseText != "" {
				break
			}
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("response contained no text output")
	}
	return responseText, nil
}
