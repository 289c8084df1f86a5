package migrations_test

import (
	"testing"

	"github.com/25thblame/prompt-shield/pkg/infra/database"
	_ "github.com/25thblame/prompt-shield/pkg/infra/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsRegistered(t *testing.T) {
	registered := database.Registered()
	require.GreaterOrEqual(t, len(registered), 2)

	assert.Equal(t, "20250101_create_attacks_table", registered[0].ID)
	for i, m := range registered {
		assert.NotNil(t, m.Up, m.ID)
		assert.NotNil(t, m.Down, m.ID)
		if i > 0 {
			assert.Less(t, registered[i-1].ID, m.ID)
		}
	}
}

func TestRegisterMigration_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		database.RegisterMigration(database.Migration{ID: "20250101_create_attacks_table"})
	})
}
