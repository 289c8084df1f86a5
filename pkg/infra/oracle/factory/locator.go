package factory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/anthropic"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/azure"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/bedrock"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/gemini"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/openai"
	"github.com/sirupsen/logrus"
)

const (
	ProviderOpenAI     = openai.ProviderOpenAI
	ProviderOpenRouter = openai.ProviderOpenRouter
	ProviderAnthropic  = anthropic.ProviderName
	ProviderGemini     = gemini.ProviderName
	ProviderBedrock    = bedrock.ProviderName
	ProviderAzure      = azure.ProviderName
)

var ErrNoCredentials = errors.New("at least one oracle api key must be configured")

// fallbackOrder is consulted when the preferred provider has no key.
var fallbackOrder = []string{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderOpenRouter,
	ProviderGemini,
	ProviderAzure,
}

type Credentials struct {
	OpenAI     string
	Anthropic  string
	OpenRouter string
	Gemini     string
	Azure      string
}

func (c Credentials) keyFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderAnthropic:
		return c.Anthropic
	case ProviderOpenRouter:
		return c.OpenRouter
	case ProviderGemini:
		return c.Gemini
	case ProviderAzure:
		return c.Azure
	default:
		return ""
	}
}

// SelectProvider returns preferred when it can authenticate, otherwise the
// first provider in fallbackOrder that has a key. Bedrock authenticates
// through the AWS credential chain and is only used when asked for.
func SelectProvider(preferred string, creds Credentials) (string, error) {
	preferred = strings.ToLower(strings.TrimSpace(preferred))
	if preferred == ProviderBedrock {
		return preferred, nil
	}
	if preferred != "" && creds.keyFor(preferred) != "" {
		return preferred, nil
	}
	for _, provider := range fallbackOrder {
		if creds.keyFor(provider) != "" {
			return provider, nil
		}
	}
	return "", ErrNoCredentials
}

type ProviderLocator interface {
	Get(ctx context.Context, provider string) (oracle.Transport, error)
}

type providerLocator struct {
	logger  *logrus.Logger
	creds   Credentials
	options map[string]interface{}
}

func NewProviderLocator(logger *logrus.Logger, creds Credentials, options map[string]interface{}) ProviderLocator {
	return &providerLocator{
		logger:  logger,
		creds:   creds,
		options: options,
	}
}

func (f *providerLocator) Get(ctx context.Context, provider string) (oracle.Transport, error) {
	key := f.creds.keyFor(provider)
	switch provider {
	case ProviderOpenAI, ProviderOpenRouter:
		return openai.NewTransport(f.logger, provider, key, f.options)
	case ProviderAnthropic:
		return anthropic.NewTransport(key, f.options)
	case ProviderGemini:
		return gemini.NewTransport(ctx, key, f.options)
	case ProviderBedrock:
		return bedrock.NewTransport(ctx, f.options)
	case ProviderAzure:
		return azure.NewTransport(key, f.options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
