package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, repo attack.Repository, source string, attackType verdict.AttackType, action verdict.Action, at time.Time) {
	t.Helper()
	v := verdict.Verdict{AttackType: attackType, Action: action, Confidence: 0.9, AttackDetected: true}
	require.NoError(t, repo.Record(context.Background(), attack.NewRecord(source, "fp", "prompt", v, at)))
}

func TestMemoryAttackRepository_RepeatOffenders(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	for i := 0; i < 5; i++ {
		record(t, repo, "u1", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 2; i++ {
		record(t, repo, "u2", verdict.AttackTypePromptInjection, verdict.ActionFlag, base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 4; i++ {
		record(t, repo, "", verdict.AttackTypeJailbreak, verdict.ActionBlock, base)
	}

	offenders, err := repo.RepeatOffenders(context.Background(), base.Add(-time.Hour), 3)
	require.NoError(t, err)
	require.Len(t, offenders, 1)
	assert.Equal(t, "u1", offenders[0].SourceID)
	assert.Equal(t, 5, offenders[0].Count)
	assert.Equal(t, base.Add(4*time.Minute), offenders[0].LastSeen)
}

func TestMemoryAttackRepository_RepeatOffendersOrdering(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	for i := 0; i < 3; i++ {
		record(t, repo, "older", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(time.Duration(i)*time.Minute))
		record(t, repo, "newer", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(time.Duration(i)*time.Minute+time.Second))
	}
	for i := 0; i < 4; i++ {
		record(t, repo, "most", verdict.AttackTypeJailbreak, verdict.ActionBlock, base)
	}

	offenders, err := repo.RepeatOffenders(context.Background(), base.Add(-time.Hour), 3)
	require.NoError(t, err)
	require.Len(t, offenders, 3)
	assert.Equal(t, "most", offenders[0].SourceID)
	assert.Equal(t, "newer", offenders[1].SourceID)
	assert.Equal(t, "older", offenders[2].SourceID)
}

func TestMemoryAttackRepository_RepeatOffendersWindow(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	for i := 0; i < 3; i++ {
		record(t, repo, "u1", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(-48*time.Hour))
	}
	offenders, err := repo.RepeatOffenders(context.Background(), base.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Empty(t, offenders)
}

func TestMemoryAttackRepository_StatsSince(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	record(t, repo, "a", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(-2*time.Hour))
	record(t, repo, "a", verdict.AttackTypeJailbreak, verdict.ActionBlock, base)
	record(t, repo, "b", verdict.AttackTypePromptInjection, verdict.ActionFlag, base.Add(time.Minute))
	record(t, repo, "c", verdict.AttackTypeJailbreak, verdict.ActionFlag, base.Add(2*time.Minute))

	stats, err := repo.StatsSince(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, map[verdict.AttackType]int{
		verdict.AttackTypeJailbreak:       2,
		verdict.AttackTypePromptInjection: 1,
	}, stats.CountsByType)

	stats, err = repo.StatsSince(context.Background(), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.CountsByType)
}

func TestMemoryAttackRepository_Recent(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	for i := 0; i < 10; i++ {
		attackType := verdict.AttackTypeJailbreak
		if i%2 == 0 {
			attackType = verdict.AttackTypePromptExtraction
		}
		record(t, repo, fmt.Sprintf("s%d", i), attackType, verdict.ActionBlock, base.Add(time.Duration(i)*time.Minute))
	}

	recent, err := repo.Recent(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "s9", recent[0].SourceID)
	assert.Equal(t, "s8", recent[1].SourceID)
	assert.Equal(t, "s7", recent[2].SourceID)

	page, err := repo.Recent(context.Background(), 3, 8)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "s1", page[0].SourceID)
	assert.Equal(t, "s0", page[1].SourceID)

	filtered, err := repo.Recent(context.Background(), 10, 1, verdict.AttackTypeJailbreak)
	require.NoError(t, err)
	require.Len(t, filtered, 4)
	for _, rec := range filtered {
		assert.Equal(t, verdict.AttackTypeJailbreak, rec.AttackType)
	}
	assert.Equal(t, "s7", filtered[0].SourceID)
}

func TestMemoryAttackRepository_OutOfOrderRecords(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(0)
	record(t, repo, "late", verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(time.Minute))
	record(t, repo, "early", verdict.AttackTypeJailbreak, verdict.ActionBlock, base)

	recent, err := repo.Recent(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "late", recent[0].SourceID)
}

func TestMemoryAttackRepository_Retention(t *testing.T) {
	repo := repository.NewMemoryAttackRepository(3)
	for i := 0; i < 5; i++ {
		record(t, repo, fmt.Sprintf("s%d", i), verdict.AttackTypeJailbreak, verdict.ActionBlock, base.Add(time.Duration(i)*time.Minute))
	}
	recent, err := repo.Recent(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "s2", recent[2].SourceID)
}
