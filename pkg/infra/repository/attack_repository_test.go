package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/database"
	_ "github.com/25thblame/prompt-shield/pkg/infra/migrations"
	"github.com/25thblame/prompt-shield/pkg/infra/repository"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupLedgerDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shield_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	db, err := database.NewDB(ctx, logger, &database.Config{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "shield_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func truncate(t *testing.T, db *database.DB) {
	t.Helper()
	require.NoError(t, db.Exec("TRUNCATE attacks").Error)
}

func TestAttackRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := setupLedgerDB(t)
	repo := repository.NewAttackRepository(db.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	week := now.Add(-7 * 24 * time.Hour)

	t.Run("repeat offenders honor min count and skip anonymous", func(t *testing.T) {
		truncate(t, db)
		for i := 0; i < 5; i++ {
			record(t, repo, "u1", verdict.AttackTypeInstructionOverride, verdict.ActionBlock, now.Add(-time.Duration(i+1)*time.Hour))
		}
		for i := 0; i < 2; i++ {
			record(t, repo, "u2", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Duration(i+1)*time.Minute))
		}
		for i := 0; i < 4; i++ {
			record(t, repo, "", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Duration(i+1)*time.Second))
		}
		// outside the window
		record(t, repo, "u2", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-30*24*time.Hour))

		offenders, err := repo.RepeatOffenders(ctx, week, 3)
		require.NoError(t, err)
		require.Len(t, offenders, 1)
		assert.Equal(t, "u1", offenders[0].SourceID)
		assert.Equal(t, 5, offenders[0].Count)
		assert.True(t, offenders[0].LastSeen.Equal(now.Add(-time.Hour)), "last seen %s", offenders[0].LastSeen)
	})

	t.Run("equal counts order by most recent attack", func(t *testing.T) {
		truncate(t, db)
		for i := 0; i < 3; i++ {
			record(t, repo, "early", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Duration(i+10)*time.Minute))
			record(t, repo, "late", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Duration(i+2)*time.Minute))
		}
		for i := 0; i < 4; i++ {
			record(t, repo, "heavy", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Duration(i+30)*time.Minute))
		}

		offenders, err := repo.RepeatOffenders(ctx, week, 3)
		require.NoError(t, err)
		require.Len(t, offenders, 3)
		assert.Equal(t, "heavy", offenders[0].SourceID)
		assert.Equal(t, "late", offenders[1].SourceID)
		assert.Equal(t, "early", offenders[2].SourceID)
	})

	t.Run("recent pages newest first", func(t *testing.T) {
		truncate(t, db)
		for i := 0; i < 5; i++ {
			record(t, repo, fmt.Sprintf("s%d", i), verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(time.Duration(i-10)*time.Minute))
		}

		page, err := repo.Recent(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "s4", page[0].SourceID)
		assert.Equal(t, "s3", page[1].SourceID)

		page, err = repo.Recent(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "s2", page[0].SourceID)
		assert.Equal(t, "s1", page[1].SourceID)

		page, err = repo.Recent(ctx, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "s0", page[0].SourceID)

		page, err = repo.Recent(ctx, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("recent filters by attack type", func(t *testing.T) {
		truncate(t, db)
		record(t, repo, "a", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-3*time.Minute))
		record(t, repo, "b", verdict.AttackTypePromptExtraction, verdict.ActionBlock, now.Add(-2*time.Minute))
		record(t, repo, "c", verdict.AttackTypeRoleplayManipulation, verdict.ActionFlag, now.Add(-time.Minute))

		page, err := repo.Recent(ctx, 10, 0, verdict.AttackTypeJailbreak, verdict.AttackTypeRoleplayManipulation)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "c", page[0].SourceID)
		assert.Equal(t, "a", page[1].SourceID)

		page, err = repo.Recent(ctx, 10, 0, verdict.AttackTypePromptInjection)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("stats count blocked and group by type", func(t *testing.T) {
		truncate(t, db)
		record(t, repo, "a", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-time.Hour))
		record(t, repo, "a", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-2*time.Hour))
		record(t, repo, "b", verdict.AttackTypeRoleplayManipulation, verdict.ActionFlag, now.Add(-3*time.Hour))
		record(t, repo, "b", verdict.AttackTypeJailbreak, verdict.ActionBlock, now.Add(-10*24*time.Hour))

		stats, err := repo.StatsSince(ctx, week)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.Blocked)
		assert.Equal(t, 2, stats.CountsByType[verdict.AttackTypeJailbreak])
		assert.Equal(t, 1, stats.CountsByType[verdict.AttackTypeRoleplayManipulation])
	})
}
