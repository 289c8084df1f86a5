package policy_test

import (
	"testing"

	"github.com/25thblame/prompt-shield/pkg/app/policy"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/stretchr/testify/assert"
)

func TestThresholds_DecideBoundaries(t *testing.T) {
	th := policy.DefaultThresholds()

	tests := []struct {
		confidence float64
		want       verdict.Action
	}{
		{0, verdict.ActionAllow},
		{0.39, verdict.ActionAllow},
		{0.3999999, verdict.ActionAllow},
		{0.4, verdict.ActionFlag},
		{0.79, verdict.ActionFlag},
		{0.7999999, verdict.ActionFlag},
		{0.8, verdict.ActionBlock},
		{1, verdict.ActionBlock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Decide(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestThresholds_ApplyDerivesFlags(t *testing.T) {
	th := policy.DefaultThresholds()

	t.Run("Blocked jailbreak", func(t *testing.T) {
		v := th.Apply(verdict.Classification{
			AttackType: verdict.AttackTypeJailbreak,
			Confidence: 0.93,
			Reason:     "DAN style",
		})
		assert.False(t, v.IsSafe)
		assert.True(t, v.AttackDetected)
		assert.False(t, v.Flagged)
		assert.True(t, v.ShouldBlock())
		assert.False(t, v.Cached)
		assert.Equal(t, verdict.AttackTypeJailbreak, v.AttackType)
	})

	t.Run("Flagged at the lower bound", func(t *testing.T) {
		v := th.Apply(verdict.Classification{AttackType: verdict.AttackTypeRoleplayManipulation, Confidence: 0.4})
		assert.True(t, v.IsSafe)
		assert.True(t, v.AttackDetected)
		assert.True(t, v.Flagged)
		assert.True(t, v.ShouldFlag())
	})

	t.Run("Benign", func(t *testing.T) {
		v := th.Apply(verdict.Classification{ReportedSafe: true, AttackType: verdict.AttackTypeNone, Confidence: 0.02})
		assert.True(t, v.IsSafe)
		assert.False(t, v.AttackDetected)
		assert.False(t, v.Flagged)
		assert.Equal(t, verdict.ActionAllow, v.Action)
	})
}

func TestThresholds_CustomValues(t *testing.T) {
	th := policy.Thresholds{Block: 0.9, Flag: 0.5}
	assert.NoError(t, th.Validate())
	assert.Equal(t, verdict.ActionFlag, th.Decide(0.8))
	assert.Equal(t, verdict.ActionAllow, th.Decide(0.45))
	assert.Equal(t, verdict.ActionBlock, th.Decide(0.9))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, policy.DefaultThresholds().Validate())
	assert.ErrorIs(t, policy.Thresholds{Block: 0.3, Flag: 0.5}.Validate(), policy.ErrInvalidThresholds)
	assert.ErrorIs(t, policy.Thresholds{Block: 1.2, Flag: 0.5}.Validate(), policy.ErrInvalidThresholds)
	assert.ErrorIs(t, policy.Thresholds{Block: 0.8, Flag: -0.1}.Validate(), policy.ErrInvalidThresholds)
}
