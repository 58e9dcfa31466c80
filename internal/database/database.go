package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftlink/backend/internal/config"
	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/queue"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// AllModels lists every persisted entity for schema migration
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.DeviceToken{},
		&models.Worker{},
		&models.Certification{},
		&models.WorkerAvailability{},
		&models.Company{},
		&models.Trainer{},
		&models.JobRole{},
		&models.TrainingProgram{},
		&models.TrainingModule{},
		&models.Shift{},
		&models.ShiftRequest{},
		&models.ShiftAssignment{},
		&models.Subscription{},
		&models.Payment{},
		&models.Notification{},
		&models.WebhookEvent{},
		&queue.Job{},
	}
}
