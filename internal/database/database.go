package database

import (
	"fmt"

	"github.com/tradelog/tradelog-api/internal/database/migrations"
	"github.com/tradelog/tradelog-api/internal/importer"
	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddTradeIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&types.BrokerStatus{},
		&types.Strategy{},
		&types.Settings{},
		&importer.ImportBatch{},
		&importer.IdempotencyRecord{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
