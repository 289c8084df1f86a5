package oracle

import (
	"fmt"
	"math"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/valyala/fastjson"
)

const DefaultMaxReasonLength = 500

type Status int

const (
	StatusValid Status = iota
	StatusInvalid
)

func (s Status) String() string {
	if s == StatusValid {
		return "valid"
	}
	return "invalid"
}

// Decoded is the tagged result of decoding one oracle reply. Problem is set
// only when Status is StatusInvalid.
type Decoded struct {
	Status         Status
	Classification verdict.Classification
	Problem        *ValidationError
}

var parserPool fastjson.ParserPool

// Decode validates a raw reply against the classification schema. Required
// fields are is_safe (bool), attack_type (string), confidence (number) and
// reason (string). Confidence is clamped to [0,1] and reason is cut to
// maxReasonLength runes.
func Decode(raw string, maxReasonLength int) Decoded {
	if maxReasonLength <= 0 {
		maxReasonLength = DefaultMaxReasonLength
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.Parse(stripCodeFence(raw))
	if err != nil {
		return invalid("", fmt.Sprintf("not valid JSON: %v", err))
	}
	if v.Type() != fastjson.TypeObject {
		return invalid("", fmt.Sprintf("expected an object, got %s", v.Type()))
	}

	isSafe := v.Get("is_safe")
	if isSafe == nil {
		return invalid("is_safe", "missing")
	}
	reportedSafe, err := isSafe.Bool()
	if err != nil {
		return invalid("is_safe", fmt.Sprintf("expected boolean, got %s", isSafe.Type()))
	}

	rawType, problem := stringField(v, "attack_type")
	if problem != nil {
		return Decoded{Status: StatusInvalid, Problem: problem}
	}

	conf := v.Get("confidence")
	if conf == nil {
		return invalid("confidence", "missing")
	}
	if conf.Type() != fastjson.TypeNumber {
		return invalid("confidence", fmt.Sprintf("expected number, got %s", conf.Type()))
	}
	confidence, err := conf.Float64()
	if err != nil || math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return invalid("confidence", "not a finite number")
	}

	reason, problem := stringField(v, "reason")
	if problem != nil {
		return Decoded{Status: StatusInvalid, Problem: problem}
	}

	attackType, err := verdict.ParseAttackType(rawType)
	if err != nil {
		return invalid("attack_type", err.Error())
	}

	return Decoded{
		Status: StatusValid,
		Classification: verdict.Classification{
			ReportedSafe: reportedSafe,
			AttackType:   attackType,
			Confidence:   clamp(confidence),
			Reason:       truncate(strings.TrimSpace(reason), maxReasonLength),
		},
	}
}

func stringField(v *fastjson.Value, name string) (string, *ValidationError) {
	f := v.Get(name)
	if f == nil {
		return "", &ValidationError{Field: name, Problem: "missing"}
	}
	b, err := f.StringBytes()
	if err != nil {
		return "", &ValidationError{Field: name, Problem: fmt.Sprintf("expected string, got %s", f.Type())}
	}
	return string(b), nil
}

func invalid(field, problem string) Decoded {
	return Decoded{
		Status:  StatusInvalid,
		Problem: &ValidationError{Field: field, Problem: problem},
	}
}

// stripCodeFence removes a markdown fence some models wrap JSON in.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
