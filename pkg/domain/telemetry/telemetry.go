package telemetry

import (
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/google/uuid"
)

type Telemetry struct {
	Exporters []ExporterConfig `json:"exporters" mapstructure:"exporters"`
}

type ExporterConfig struct {
	Name     string                 `json:"name" mapstructure:"name"`
	Settings map[string]interface{} `json:"settings" mapstructure:"settings"`
}

// AttackEvent is the exported form of a ledger record. The prompt preview
// stays in the ledger.
type AttackEvent struct {
	ID          uuid.UUID          `json:"id"`
	SourceID    string             `json:"source_id,omitempty"`
	Fingerprint string             `json:"fingerprint"`
	AttackType  verdict.AttackType `json:"attack_type"`
	Action      verdict.Action     `json:"action"`
	Confidence  float64            `json:"confidence"`
	Reason      string             `json:"reason"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewAttackEvent(r *attack.AttackRecord) AttackEvent {
	return AttackEvent{
		ID:          r.ID,
		SourceID:    r.SourceID,
		Fingerprint: r.Fingerprint,
		AttackType:  r.AttackType,
		Action:      r.Action,
		Confidence:  r.Confidence,
		Reason:      r.Reason,
		Timestamp:   r.Timestamp,
	}
}
