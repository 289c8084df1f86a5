package migrations

import (
	"github.com/25thblame/prompt-shield/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20250101_create_attacks_table",
		Name: "Create attacks ledger table",

		Up: func(db *gorm.DB) error {
			if err := db.Exec(`
				CREATE TABLE IF NOT EXISTS attacks (
					id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					source_id      TEXT NOT NULL DEFAULT '',
					fingerprint    CHAR(64) NOT NULL,
					attack_type    TEXT NOT NULL,
					confidence     DOUBLE PRECISION NOT NULL,
					action         TEXT NOT NULL,
					reason         TEXT,
					prompt_preview TEXT,
					timestamp      TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_attacks_timestamp
				ON attacks (timestamp DESC);
			`).Error; err != nil {
				return err
			}

			// repeat offender grouping
			return db.Exec(`
				CREATE INDEX IF NOT EXISTS idx_attacks_source_timestamp
				ON attacks (source_id, timestamp)
				WHERE source_id <> '';
			`).Error
		},

		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS attacks;`).Error
		},
	})
}
