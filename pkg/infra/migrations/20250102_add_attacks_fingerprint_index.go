package migrations

import (
	"github.com/25thblame/prompt-shield/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250102_add_attacks_fingerprint_index",
		Name: "Index attacks by fingerprint",

		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_attacks_fingerprint
				ON attacks (fingerprint);
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_attacks_fingerprint;`).Error
		},
	})
}
