package oracle

import (
	"fmt"

	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

// ValidationError describes an oracle reply that does not match the
// expected shape. It never reaches callers; the client substitutes a
// fallback verdict.
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid oracle reply: %s", e.Problem)
	}
	return fmt.Sprintf("invalid oracle reply: field %q: %s", e.Field, e.Problem)
}

// ClassificationUnavailableError is returned once every attempt to reach the
// oracle has failed. FailOpen and Fallback tell the caller how the service
// is configured to treat the input.
type ClassificationUnavailableError struct {
	Attempts int
	FailOpen bool
	Fallback verdict.Verdict
	Cause    error
}

func (e *ClassificationUnavailableError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", domain.ErrClassificationUnavailable, e.Attempts, e.Cause)
}

func (e *ClassificationUnavailableError) Unwrap() []error {
	return []error{domain.ErrClassificationUnavailable, e.Cause}
}
