package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSubscriptionUniqueIndex backs the "at most one active or pending
// subscription per user" rule with a partial unique index. The service-level
// pre-check gives the friendly 400; the index closes the window between two
// concurrent creates.
func createSubscriptionUniqueIndex() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_subscription_unique_index",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_open_per_user
				ON subscriptions (user_id)
				WHERE status IN ('active', 'pending') AND deleted_at IS NULL;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP INDEX IF EXISTS idx_subscriptions_one_open_per_user").Error
		},
	}
}
