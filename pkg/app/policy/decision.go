package policy

import (
	"errors"
	"fmt"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

const (
	DefaultBlockThreshold = 0.8
	DefaultFlagThreshold  = 0.4
)

var ErrInvalidThresholds = errors.New("invalid decision thresholds")

// Thresholds maps confidence to an action. Both bounds are inclusive:
// confidence >= Block blocks, confidence >= Flag flags.
type Thresholds struct {
	Block float64
	Flag  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Block: DefaultBlockThreshold,
		Flag:  DefaultFlagThreshold,
	}
}

func (t Thresholds) Validate() error {
	if t.Block < 0 || t.Block > 1 || t.Flag < 0 || t.Flag > 1 {
		return fmt.Errorf("%w: thresholds must lie in [0,1], got block=%v flag=%v", ErrInvalidThresholds, t.Block, t.Flag)
	}
	if t.Flag > t.Block {
		return fmt.Errorf("%w: flag threshold %v exceeds block threshold %v", ErrInvalidThresholds, t.Flag, t.Block)
	}
	return nil
}

func (t Thresholds) Decide(confidence float64) verdict.Action {
	switch {
	case confidence >= t.Block:
		return verdict.ActionBlock
	case confidence >= t.Flag:
		return verdict.ActionFlag
	default:
		return verdict.ActionAllow
	}
}

// Apply derives every policy dependent field of a verdict from the
// classification confidence. The oracle's own is_safe opinion is not
// trusted over the thresholds.
func (t Thresholds) Apply(c verdict.Classification) verdict.Verdict {
	action := t.Decide(c.Confidence)
	return verdict.Verdict{
		IsSafe:         action != verdict.ActionBlock,
		AttackDetected: c.Confidence >= t.Flag,
		AttackType:     c.AttackType,
		Confidence:     c.Confidence,
		Reason:         c.Reason,
		Flagged:        action == verdict.ActionFlag,
		Action:         action,
	}
}
