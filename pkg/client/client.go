// Package client calls a remote PromptShield service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/httpx"
	"github.com/25thblame/prompt-shield/pkg/version"
)

const DefaultTimeout = 30 * time.Second

var ErrInvalidBaseURL = errors.New("invalid base url")

// APIError is any non 2xx reply other than an unavailable classifier.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prompt shield: status %d: %s", e.StatusCode, e.Message)
}

// UnavailableError reports that the service could not classify the prompt.
// Fallback is the verdict the service applies under its failure policy.
type UnavailableError struct {
	FailOpen  bool
	Fallback  verdict.Verdict
	RequestID string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("prompt shield: classification unavailable (fail_open=%t)", e.FailOpen)
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the default fasthttp backed client.
func WithHTTPClient(h httpx.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    httpx.Client
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpx.NewFastHTTPClient(
			httpx.WithTimeout(c.timeout),
			httpx.WithUserAgent(version.AppName+"-go/"+version.Version),
		)
	}
	return c, nil
}

type CheckOption func(*checkRequest)

// WithSource attributes the prompt to a caller or session.
func WithSource(sourceID string) CheckOption {
	return func(r *checkRequest) {
		r.SourceID = sourceID
	}
}

// WithContext attaches free form context about the expected use.
func WithContext(context map[string]interface{}) CheckOption {
	return func(r *checkRequest) {
		r.Context = context
	}
}

type checkRequest struct {
	Prompt   string                 `json:"prompt"`
	Context  map[string]interface{} `json:"context,omitempty"`
	SourceID string                 `json:"source_id,omitempty"`
}

type checkResponse struct {
	Result    verdict.Verdict `json:"result"`
	RequestID string          `json:"request_id"`
}

type unavailableResponse struct {
	Error     string          `json:"error"`
	FailOpen  bool            `json:"fail_open"`
	Fallback  verdict.Verdict `json:"fallback"`
	RequestID string          `json:"request_id"`
}

// Check screens prompt remotely.
func (c *Client) Check(ctx context.Context, prompt string, opts ...CheckOption) (verdict.Verdict, error) {
	payload := checkRequest{Prompt: prompt}
	for _, opt := range opts {
		opt(&payload)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("failed to marshal check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check", bytes.NewReader(body))
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("failed to build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	if c.apiKey != "" {
		req.Header.Set(common.APIKeyHeader, c.apiKey)
	}
	if payload.SourceID != "" {
		req.Header.Set(common.SourceIDHeader, payload.SourceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("prompt shield request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var out checkResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			return verdict.Verdict{}, fmt.Errorf("failed to decode check response: %w", err)
		}
		return out.Result, nil
	case resp.StatusCode == http.StatusServiceUnavailable:
		var out unavailableResponse
		if err := json.Unmarshal(raw, &out); err == nil && out.Fallback.Action != "" {
			return verdict.Verdict{}, &UnavailableError{
				FailOpen:  out.FailOpen,
				Fallback:  out.Fallback,
				RequestID: out.RequestID,
			}
		}
		return verdict.Verdict{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	default:
		return verdict.Verdict{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
}

// ShouldBlock screens prompt and reports whether it must be rejected. An
// unavailable classifier yields the service's fallback decision.
func (c *Client) ShouldBlock(ctx context.Context, prompt string, opts ...CheckOption) (bool, error) {
	v, err := c.Check(ctx, prompt, opts...)
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Fallback.ShouldBlock(), nil
	}
	if err != nil {
		return false, err
	}
	return v.ShouldBlock(), nil
}

// ShouldFlag reports whether prompt deserves review without being rejected.
func (c *Client) ShouldFlag(ctx context.Context, prompt string, opts ...CheckOption) (bool, error) {
	v, err := c.Check(ctx, prompt, opts...)
	if err != nil {
		return false, err
	}
	return v.ShouldFlag(), nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
