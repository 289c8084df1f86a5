package cache

import (
	"context"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
)

const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

type Store interface {
	Name() string
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (verdict.Verdict, bool, error)
	Set(ctx context.Context, key string, v verdict.Verdict, ttl time.Duration) error
}

// entry is the persisted form of a verdict. It has no cached flag: that
// flag describes a read, not the stored value.
type entry struct {
	IsSafe         bool               `json:"is_safe"`
	AttackDetected bool               `json:"attack_detected"`
	AttackType     verdict.AttackType `json:"attack_type"`
	Confidence     float64            `json:"confidence"`
	Reason         string             `json:"reason"`
	Flagged        bool               `json:"flagged"`
	Action         verdict.Action     `json:"action"`
}

func newEntry(v verdict.Verdict) entry {
	return entry{
		IsSafe:         v.IsSafe,
		AttackDetected: v.AttackDetected,
		AttackType:     v.AttackType,
		Confidence:     v.Confidence,
		Reason:         v.Reason,
		Flagged:        v.Flagged,
		Action:         v.Action,
	}
}

func (e entry) verdict() verdict.Verdict {
	return verdict.Verdict{
		IsSafe:         e.IsSafe,
		AttackDetected: e.AttackDetected,
		AttackType:     e.AttackType,
		Confidence:     e.Confidence,
		Reason:         e.Reason,
		Flagged:        e.Flagged,
		Action:         e.Action,
	}
}

type localStore struct {
	data *TTLMap
}

// NewLocalStore keeps verdicts in process memory.
func NewLocalStore(data *TTLMap) Store {
	return &localStore{data: data}
}

func (s *localStore) Name() string {
	return BackendLocal
}

func (s *localStore) Ping(context.Context) error {
	return nil
}

func (s *localStore) Get(_ context.Context, key string) (verdict.Verdict, bool, error) {
	raw, ok := s.data.Get(key)
	if !ok {
		return verdict.Verdict{}, false, nil
	}
	e, ok := raw.(entry)
	if !ok {
		s.data.Delete(key)
		return verdict.Verdict{}, false, nil
	}
	return e.verdict(), true, nil
}

func (s *localStore) Set(_ context.Context, key string, v verdict.Verdict, ttl time.Duration) error {
	s.data.SetWithTTL(key, newEntry(v), ttl)
	return nil
}
