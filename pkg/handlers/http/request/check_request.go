package request

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const MaxSourceIDLength = 256

var (
	ErrPromptRequired  = errors.New("prompt is required")
	ErrPromptTooLong   = errors.New("prompt is too long")
	ErrSourceIDTooLong = errors.New("source_id is too long")
)

type CheckRequest struct {
	Prompt   string                 `json:"prompt"`
	Context  map[string]interface{} `json:"context,omitempty"`
	SourceID string                 `json:"source_id,omitempty"`
}

// Validate bounds the prompt length in characters.
func (r *CheckRequest) Validate(maxPromptLength int) error {
	n := utf8.RuneCountInString(r.Prompt)
	if n == 0 {
		return ErrPromptRequired
	}
	if maxPromptLength > 0 && n > maxPromptLength {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrPromptTooLong, n, maxPromptLength)
	}
	if len(r.SourceID) > MaxSourceIDLength {
		return fmt.Errorf("%w: limit is %d bytes", ErrSourceIDTooLong, MaxSourceIDLength)
	}
	return nil
}
