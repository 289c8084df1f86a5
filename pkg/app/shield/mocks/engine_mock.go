package mocks

import (
	"context"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/stretchr/testify/mock"
)

type Engine struct {
	mock.Mock
}

func (m *Engine) Check(ctx context.Context, text, sourceID string) (verdict.Verdict, error) {
	args := m.Called(ctx, text, sourceID)
	v, _ := args.Get(0).(verdict.Verdict)
	return v, args.Error(1)
}

func (m *Engine) GetStats(ctx context.Context, windowDays int) (*attack.Stats, error) {
	args := m.Called(ctx, windowDays)
	stats, _ := args.Get(0).(*attack.Stats)
	return stats, args.Error(1)
}

func (m *Engine) GetRecentAttacks(ctx context.Context, limit, offset int, types ...verdict.AttackType) ([]attack.AttackRecord, error) {
	args := m.Called(ctx, limit, offset, types)
	records, _ := args.Get(0).([]attack.AttackRecord)
	return records, args.Error(1)
}

func (m *Engine) GetRepeatOffenders(ctx context.Context, windowDays, minCount int) ([]attack.Offender, error) {
	args := m.Called(ctx, windowDays, minCount)
	offenders, _ := args.Get(0).([]attack.Offender)
	return offenders, args.Error(1)
}

func (m *Engine) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
