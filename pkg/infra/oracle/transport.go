package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrFailedOracleCall = errors.New("oracle service call failed")

// Request is a fully built classification request. Transports translate it
// to their provider's wire format and return the raw text of the reply.
type Request struct {
	SystemPrompt string
	Input        string
	Model        string
	MaxTokens    int
	Temperature  float64
}

type Transport interface {
	Name() string
	Send(ctx context.Context, req Request) (string, error)
}

// TransportError is any failure to obtain a reply from the oracle.
type TransportError struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", ErrFailedOracleCall, e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", ErrFailedOracleCall, e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrFailedOracleCall, e.Cause}
}

// Retryable is false for client errors that another attempt cannot fix.
func (e *TransportError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return false
	default:
		return true
	}
}

func NewStatusError(provider string, statusCode int, cause error) error {
	return &TransportError{
		Provider:   provider,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

func asTransportError(provider string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Provider: provider, Cause: err}
}
