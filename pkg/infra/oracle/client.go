package oracle

import (
	"context"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

// Decider turns a validated classification into a verdict.
type Decider interface {
	Apply(c verdict.Classification) verdict.Verdict
}

type Classifier interface {
	Classify(ctx context.Context, text string) (verdict.Verdict, error)
}

type Config struct {
	Model           string
	MaxTokens       int
	MaxReasonLength int
	// FailOpen selects the fallback verdict used when the oracle cannot
	// produce a usable reply.
	FailOpen bool
	Retry    RetryPolicy
}

type Client struct {
	logger    *logrus.Logger
	transport Transport
	decider   Decider
	cfg       Config
}

func NewClient(logger *logrus.Logger, transport Transport, decider Decider, cfg Config) *Client {
	if cfg.MaxReasonLength <= 0 {
		cfg.MaxReasonLength = DefaultMaxReasonLength
	}
	return &Client{
		logger:    logger,
		transport: transport,
		decider:   decider,
		cfg:       cfg,
	}
}

// Classify asks the oracle about text. A malformed reply yields the
// configured fallback verdict and no error. Only transport failures that
// outlast the retry policy are returned, as *ClassificationUnavailableError.
func (c *Client) Classify(ctx context.Context, text string) (verdict.Verdict, error) {
	req := BuildRequest(text, c.cfg.Model, c.cfg.MaxTokens)
	provider := c.transport.Name()

	reply, attempts, err := c.cfg.Retry.run(ctx, func(ctx context.Context) (string, error) {
		start := time.Now()
		reply, err := c.transport.Send(ctx, req)
		prometheus.OracleLatency.WithLabelValues(provider).Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			prometheus.OracleCalls.WithLabelValues(provider, "transport_error").Inc()
			c.logger.WithFields(logrus.Fields{
				"provider": provider,
				"error":    err.Error(),
			}).Warn("oracle attempt failed")
			return "", asTransportError(provider, err)
		}
		return reply, nil
	})
	if err != nil {
		prometheus.OracleCalls.WithLabelValues(provider, "exhausted").Inc()
		fallback := verdict.Fallback(c.cfg.FailOpen)
		c.logger.WithFields(logrus.Fields{
			"provider":  provider,
			"attempts":  attempts,
			"fail_open": c.cfg.FailOpen,
		}).WithError(err).Error("oracle unavailable")
		return verdict.Verdict{}, &ClassificationUnavailableError{
			Attempts: attempts,
			FailOpen: c.cfg.FailOpen,
			Fallback: fallback,
			Cause:    err,
		}
	}

	decoded := Decode(reply, c.cfg.MaxReasonLength)
	if decoded.Status == StatusInvalid {
		prometheus.OracleCalls.WithLabelValues(provider, "validation_error").Inc()
		c.logger.WithFields(logrus.Fields{
			"provider":  provider,
			"problem":   decoded.Problem.Error(),
			"fail_open": c.cfg.FailOpen,
		}).Warn("oracle reply failed validation, using fallback verdict")
		return verdict.Fallback(c.cfg.FailOpen), nil
	}

	prometheus.OracleCalls.WithLabelValues(provider, "success").Inc()
	return c.decider.Apply(decoded.Classification), nil
}
