package migrations

import (
	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

// AddTradeIndexes creates the trades table and the indexes the grouping and
// dashboard queries rely on
func AddTradeIndexes(db *gorm.DB) error {
	// Create the trades table
	if err := db.AutoMigrate(&types.Trade{}); err != nil {
		return err
	}

	// Add indexes for better query performance
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Index for date ordering (every aggregation pass reads by date)
		`CREATE INDEX IF NOT EXISTS idx_trades_date
		 ON trades(date)`,

		// Composite index matching the day/symbol/broker grouping key
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_broker
		 ON trades(symbol, broker)`,

		// Index for broker filtering
		`CREATE INDEX IF NOT EXISTS idx_trades_broker
		 ON trades(broker)`,

		// Index for strategy bucket queries
		`CREATE INDEX IF NOT EXISTS idx_trades_strategy
		 ON trades(strategy)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
