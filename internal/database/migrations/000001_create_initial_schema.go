package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/database"
)

// createInitialSchema creates every table from the model definitions
func createInitialSchema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_initial_schema",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(database.AllModels()...)
		},
		Rollback: func(tx *gorm.DB) error {
			for _, model := range database.AllModels() {
				if err := tx.Migrator().DropTable(model); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
