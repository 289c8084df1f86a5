package dependency_container

import (
	"context"
	"io"
	"testing"

	"github.com/25thblame/prompt-shield/pkg/app/policy"
	"github.com/25thblame/prompt-shield/pkg/config"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/cache"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/factory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransport struct{}

func (stubTransport) Name() string { return "stub" }

func (stubTransport) Send(context.Context, oracle.Request) (string, error) {
	return `{"is_safe": true, "attack_type": "none", "confidence": 0.1, "reason": "benign"}`, nil
}

type stubLocator struct {
	asked []string
}

func (l *stubLocator) Get(_ context.Context, provider string) (oracle.Transport, error) {
	l.asked = append(l.asked, provider)
	return stubTransport{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, CORSOrigins: []string{"*"}},
		Shield: config.ShieldConfig{
			BlockThreshold:  policy.DefaultBlockThreshold,
			FlagThreshold:   policy.DefaultFlagThreshold,
			CacheTTLSeconds: 60,
			CacheMaxEntries: 100,
			MaxPromptLength: 1000,
			LedgerRetention: 100,
		},
		Oracle: config.OracleConfig{
			Provider:              "anthropic",
			TimeoutMs:             1000,
			MaxRetries:            1,
			BreakerFailures:       5,
			BreakerTimeoutSeconds: 30,
			OpenAIAPIKey:          "sk-test",
		},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewContainer_InMemory(t *testing.T) {
	locator := &stubLocator{}
	c, err := NewContainer(context.Background(), ContainerDI{
		Cfg:             testConfig(),
		Logger:          testLogger(),
		ProviderLocator: locator,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{factory.ProviderOpenAI}, locator.asked)
	assert.Equal(t, factory.ProviderOpenAI, c.Provider)
	assert.Equal(t, cache.BackendLocal, c.VerdictCache.Backend())
	assert.Nil(t, c.DB)
	assert.Nil(t, c.RedisStore)
	assert.Nil(t, c.JWTManager)
	assert.Empty(t, c.healthProbes())
	require.Len(t, c.Routers, 1)
	require.NotNil(t, c.HandlerTransport.CheckHandler)

	c.StartWorkers(1)
	v, err := c.Engine.Check(context.Background(), "What's the weather?", "u1")
	require.NoError(t, err)
	assert.Equal(t, verdict.ActionAllow, v.Action)

	require.NoError(t, c.Shutdown(context.Background()))
}

func TestNewContainer_AdminTokens(t *testing.T) {
	cfg := testConfig()
	cfg.Server.SecretKey = "secret"
	c, err := NewContainer(context.Background(), ContainerDI{
		Cfg:             cfg,
		Logger:          testLogger(),
		ProviderLocator: &stubLocator{},
	})
	require.NoError(t, err)
	assert.NotNil(t, c.JWTManager)
	require.NoError(t, c.Shutdown(context.Background()))
}

func TestNewContainer_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Shield.FlagThreshold = 0.9
	_, err := NewContainer(context.Background(), ContainerDI{Cfg: cfg, Logger: testLogger(), ProviderLocator: &stubLocator{}})
	assert.ErrorIs(t, err, policy.ErrInvalidThresholds)

	cfg = testConfig()
	cfg.Oracle.OpenAIAPIKey = ""
	_, err = NewContainer(context.Background(), ContainerDI{Cfg: cfg, Logger: testLogger(), ProviderLocator: &stubLocator{}})
	assert.ErrorIs(t, err, factory.ErrNoCredentials)
}
