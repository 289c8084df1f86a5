package oracle

import (
	"context"

	"github.com/25thblame/prompt-shield/pkg/infra/httpx"
)

type breakerTransport struct {
	next    Transport
	breaker httpx.CircuitBreaker
}

// WithCircuitBreaker stops calling a provider that keeps failing. While the
// breaker is open every send fails immediately and is not retried.
func WithCircuitBreaker(next Transport, breaker httpx.CircuitBreaker) Transport {
	return &breakerTransport{
		next:    next,
		breaker: breaker,
	}
}

func (t *breakerTransport) Name() string {
	return t.next.Name()
}

func (t *breakerTransport) Send(ctx context.Context, req Request) (string, error) {
	var reply string
	err := t.breaker.Execute(func() error {
		var err error
		reply, err = t.next.Send(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
