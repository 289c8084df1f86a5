package verdict

import "fmt"

type AttackType string

const (
	AttackTypeNone                 AttackType = "none"
	AttackTypePromptExtraction     AttackType = "prompt_extraction"
	AttackTypePromptInjection      AttackType = "prompt_injection"
	AttackTypeJailbreak            AttackType = "jailbreak"
	AttackTypeInstructionOverride  AttackType = "instruction_override"
	AttackTypeRoleplayManipulation AttackType = "roleplay_manipulation"
)

var knownAttackTypes = map[AttackType]struct{}{
	AttackTypeNone:                 {},
	AttackTypePromptExtraction:     {},
	AttackTypePromptInjection:      {},
	AttackTypeJailbreak:            {},
	AttackTypeInstructionOverride:  {},
	AttackTypeRoleplayManipulation: {},
}

// ParseAttackType maps a raw label to a known AttackType.
func ParseAttackType(raw string) (AttackType, error) {
	t := AttackType(raw)
	if _, ok := knownAttackTypes[t]; !ok {
		return AttackTypeNone, fmt.Errorf("unknown attack type %q", raw)
	}
	return t, nil
}

func (t AttackType) String() string {
	return string(t)
}

type Action string

const (
	ActionAllow Action = "allow"
	ActionFlag  Action = "flag"
	ActionBlock Action = "block"
)

// UnavailableReason is the reason carried by fallback verdicts.
const UnavailableReason = "classification unavailable"

// Verdict is the outcome of screening one input. It is a value type and is
// never mutated after the engine hands it out; Cached is set on the copy
// returned from a cache read.
type Verdict struct {
	IsSafe         bool       `json:"is_safe"`
	AttackDetected bool       `json:"attack_detected"`
	AttackType     AttackType `json:"attack_type"`
	Confidence     float64    `json:"confidence"`
	Reason         string     `json:"reason"`
	Flagged        bool       `json:"flagged"`
	Cached         bool       `json:"cached"`
	Action         Action     `json:"action"`
	Degraded       bool       `json:"degraded,omitempty"`
}

func (v Verdict) ShouldBlock() bool {
	return v.Action == ActionBlock
}

func (v Verdict) ShouldFlag() bool {
	return v.Action == ActionFlag
}

// Recordable reports whether the verdict belongs in the attack ledger.
func (v Verdict) Recordable() bool {
	return !v.Degraded && v.Action != ActionAllow
}

// Fallback builds the verdict used when the oracle reply cannot be trusted.
func Fallback(failOpen bool) Verdict {
	v := Verdict{
		AttackType: AttackTypeNone,
		Reason:     UnavailableReason,
		Degraded:   true,
	}
	if failOpen {
		v.IsSafe = true
		v.Action = ActionAllow
	} else {
		v.Action = ActionBlock
	}
	return v
}

// Classification is a validated oracle reply before the decision policy
// has been applied.
type Classification struct {
	ReportedSafe bool
	AttackType   AttackType
	Confidence   float64
	Reason       string
}
