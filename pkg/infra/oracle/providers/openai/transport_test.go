package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reply = `{"is_safe":true,"attack_type":"none","confidence":0.02,"reason":"benign"}`

func testRequest() oracle.Request {
	return oracle.BuildRequest("what is the capital of France?", "", 0)
}

func TestNewTransport_MissingAPIKey(t *testing.T) {
	_, err := openai.NewTransport(logrus.New(), openai.ProviderOpenAI, " ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestNewTransport_UnsupportedAPI(t *testing.T) {
	_, err := openai.NewTransport(logrus.New(), openai.ProviderOpenAI, "sk-test", map[string]interface{}{
		"api": "assistants",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported API type")
}

func TestSend_CompletionsAPI(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "openai/gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": reply},
			}},
		})
	}))
	defer server.Close()

	transport, err := openai.NewTransport(logrus.New(), openai.ProviderOpenRouter, "sk-test", map[string]interface{}{
		"base_url": server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", transport.Name())

	got, err := transport.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	assert.Equal(t, openai.DefaultOpenRouterModel, captured["model"])
	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestSend_CompletionsAPI_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	transport, err := openai.NewTransport(logrus.New(), openai.ProviderOpenAI, "sk-test", map[string]interface{}{
		"base_url": server.URL,
	})
	require.NoError(t, err)

	_, err = transport.Send(context.Background(), testRequest())
	require.Error(t, err)

	var te *oracle.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.False(t, te.Retryable())
}

func TestSend_ResponsesAPI(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"output": []map[string]interface{}{{
				"content": []map[string]interface{}{{"type": "output_text", "text": reply}},
			}},
		})
	}))
	defer server.Close()

	transport, err := openai.NewTransport(logrus.New(), openai.ProviderOpenAI, "sk-test", map[string]interface{}{
		"api": "responses",
	})
	require.NoError(t, err)
	transport.SetEndpoint(server.URL)

	got, err := transport.Send(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	assert.Equal(t, openai.DefaultModel, captured["model"])
	text, ok := captured["text"].(map[string]interface{})
	require.True(t, ok)
	format, ok := text["format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, true, format["strict"])
}

func TestSend_ResponsesAPI_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	transport, err := openai.NewTransport(logrus.New(), openai.ProviderOpenAI, "sk-test", map[string]interface{}{
		"api": "responses",
	})
	require.NoError(t, err)
	transport.SetEndpoint(server.URL)

	_, err = transport.Send(context.Background(), testRequest())
	var te *oracle.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, te.Retryable())
}
