package azure

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
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/mitchellh/mapstructure"
)

const (
	ProviderName      = "azure"
	DefaultAPIVersion = "2024-02-15-preview"
	cognitiveScope    = "https://cognitiveservices.azure.com/.default"
	httpClientTimeout = 30 * time.Second
)

// Options are read from oracle.options. Model names the deployment.
type Options struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIVersion  string `mapstructure:"api_version"`
	UseIdentity bool   `mapstructure:"use_identity"`
}

type Transport struct {
	apiKey     string
	options    Options
	credential azcore.TokenCredential
	httpClient *http.Client
}

// NewTransport authenticates with the api-key header, or with an Entra ID
// bearer token from the default Azure credential chain when use_identity is set.
func NewTransport(apiKey string, settings map[string]interface{}) (*Transport, error) {
	var options Options
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &options); err != nil {
			return nil, fmt.Errorf("invalid azure options: %w", err)
		}
	}
	if options.Endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if options.APIVersion == "" {
		options.APIVersion = DefaultAPIVersion
	}
	options.Endpoint = strings.TrimSuffix(options.Endpoint, "/")

	t := &Transport{
		apiKey:     strings.TrimSpace(apiKey),
		options:    options,
		httpClient: &http.Client{Timeout: httpClientTimeout},
	}
	if options.UseIdentity {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create credential: %w", err)
		}
		t.credential = cred
	} else if t.apiKey == "" {
		return nil, fmt.Errorf("API key is required when not using Azure identity")
	}
	return t, nil
}

func (t *Transport) Name() string {
	return ProviderName
}

func (t *Transport) Send(ctx context.Context, req oracle.Request) (string, error) {
	if req.Model == "" {
		return "", fmt.Errorf("model (deployment ID) is required")
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		t.options.Endpoint,
		req.Model,
		t.options.APIVersion)

	reqBody := map[string]interface{}{
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.Input},
		},
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		reqBody["max_tokens"] = req.MaxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if t.credential != nil {
		token, err := t.credential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{cognitiveScope},
		})
		if err != nil {
			return "", fmt.Errorf("failed to get Azure AD token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token.Token)
	} else {
		httpReq.Header.Set("api-key", t.apiKey)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", oracle.NewStatusError(ProviderName, resp.StatusCode, errors.New(string(respBody)))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completions returned")
	}
	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("invalid content format")
	}
	return content, nil
}
