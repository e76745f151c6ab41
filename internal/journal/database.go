package journal

import (
	"errors"

	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateTrade(trade *types.Trade) error {
	return d.db.Create(trade).Error
}

func (d *Database) GetTrade(tradeID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

func (d *Database) UpdateTrade(trade *types.Trade) error {
	return d.db.Save(trade).Error
}

// UpdateTradesBulk replaces a batch of trade records in one transaction.
// Either every record is written or none is, so the in-memory view never
// runs ahead of the store on partial failure.
func (d *Database) UpdateTradesBulk(trades []types.Trade) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for i := range trades {
		if err := tx.Save(&trades[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// GetAllTrades returns the full trade collection, newest first.
func (d *Database) GetAllTrades() ([]types.Trade, error) {
	var trades []types.Trade
	if err := d.db.Order("date DESC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (d *Database) GetStrategies() ([]string, error) {
	var strategies []types.Strategy
	if err := d.db.Order("name ASC").Find(&strategies).Error; err != nil {
		return nil, err
	}
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	return names, nil
}

// ReplaceStrategies swaps the strategy list in one transaction.
func (d *Database) ReplaceStrategies(names []string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("1 = 1").Delete(&types.Strategy{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	for _, name := range names {
		if err := tx.Create(&types.Strategy{Name: name}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// GetSettings returns the singleton settings row, creating defaults on
// first access.
func (d *Database) GetSettings() (*types.Settings, error) {
	var settings types.Settings
	err := d.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = types.Settings{
			Currency:       "INR",
			DefaultSegment: types.SegmentEquity,
		}
		if err := d.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (d *Database) SaveSettings(settings *types.Settings) error {
	existing, err := d.GetSettings()
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	return d.db.Save(settings).Error
}
