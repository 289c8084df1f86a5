package attack

import (
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const PreviewLength = 200

// AttackRecord is one flagged or blocked screening outcome. Records are
// append-only; an empty SourceID means the caller did not identify itself.
type AttackRecord struct {
	ID            uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	SourceID      string             `json:"source_id,omitempty" gorm:"type:text;not null;default:''"`
	Fingerprint   string             `json:"fingerprint" gorm:"type:char(64);not null"`
	AttackType    verdict.AttackType `json:"attack_type" gorm:"type:text;not null"`
	Confidence    float64            `json:"confidence" gorm:"not null"`
	Action        verdict.Action     `json:"action" gorm:"type:text;not null"`
	Reason        string             `json:"reason" gorm:"type:text"`
	PromptPreview string             `json:"prompt_preview" gorm:"type:text"`
	Timestamp     time.Time          `json:"timestamp" gorm:"not null;index"`
}

func (r *AttackRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

func (r *AttackRecord) TableName() string {
	return "attacks"
}

// NewRecord builds the ledger entry for a recordable verdict.
func NewRecord(sourceID, fingerprint, text string, v verdict.Verdict, at time.Time) *AttackRecord {
	return &AttackRecord{
		ID:            uuid.New(),
		SourceID:      sourceID,
		Fingerprint:   fingerprint,
		AttackType:    v.AttackType,
		Confidence:    v.Confidence,
		Action:        v.Action,
		Reason:        v.Reason,
		PromptPreview: Preview(text),
		Timestamp:     at.UTC(),
	}
}

func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}

type Stats struct {
	Since        time.Time                  `json:"since"`
	CountsByType map[verdict.AttackType]int `json:"counts_by_type"`
	Total        int                        `json:"total"`
	Blocked      int                        `json:"blocked"`
}

type Offender struct {
	SourceID string    `json:"source_id"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}
