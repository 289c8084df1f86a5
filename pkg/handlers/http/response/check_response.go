package response

import (
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

type CheckResponse struct {
	Result    verdict.Verdict `json:"result"`
	RequestID string          `json:"request_id"`
}

// UnavailableResponse is sent when the oracle could not be reached. The
// fallback tells the caller what the service would decide under its
// configured failure policy.
type UnavailableResponse struct {
	Error     string          `json:"error"`
	FailOpen  bool            `json:"fail_open"`
	Fallback  verdict.Verdict `json:"fallback"`
	RequestID string          `json:"request_id"`
}

type AttacksResponse struct {
	Attacks []attack.AttackRecord `json:"attacks"`
	Count   int                   `json:"count"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type RepeatOffendersResponse struct {
	Offenders []attack.Offender `json:"offenders"`
	MinCount  int               `json:"min_count"`
	Days      int               `json:"days"`
}

type StatsResponse struct {
	*attack.Stats
	Days int `json:"days"`
}
