package importer

import (
	"errors"
	"time"

	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateBatch(batch *ImportBatch) error {
	return d.db.Create(batch).Error
}

func (d *Database) GetBatch(batchID string) (*ImportBatch, error) {
	var batch ImportBatch
	if err := d.db.Where("batch_id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (d *Database) UpdateBatch(batch *ImportBatch) error {
	return d.db.Save(batch).Error
}

// GetIdempotencyRecord retrieves an idempotency record by key
func (d *Database) GetIdempotencyRecord(key string) (*IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := d.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CompleteBatch writes the matched trades, the batch completion, the
// idempotency record and the broker sync timestamp in one transaction.
// Partial failure rolls everything back so the store never holds half an
// import.
func (d *Database) CompleteBatch(batch *ImportBatch, trades []types.Trade, idempotencyKey string) error {
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
		if err := tx.Create(&trades[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	batch.Status = StatusCompleted
	batch.UpdatedAt = time.Now()
	if err := tx.Save(batch).Error; err != nil {
		tx.Rollback()
		return err
	}

	record := IdempotencyRecord{
		IdempotencyKey: idempotencyKey,
		ResourceID:     batch.BatchID,
		ResourceType:   "import_batch",
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return err
	}

	now := time.Now()
	if err := tx.Model(&types.BrokerStatus{}).
		Where("name = ?", batch.Broker).
		Update("last_sync_at", now).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// PurgeExpiredIdempotencyRecords drops records past their expiry.
func (d *Database) PurgeExpiredIdempotencyRecords() (int64, error) {
	result := d.db.Where("expires_at < ?", time.Now()).Delete(&IdempotencyRecord{})
	return result.RowsAffected, result.Error
}

// GetStalePendingBatches returns batches stuck in PENDING longer than maxAge,
// typically left behind by a crash mid-import.
func (d *Database) GetStalePendingBatches(maxAge time.Duration) ([]ImportBatch, error) {
	var batches []ImportBatch
	cutoff := time.Now().Add(-maxAge)
	if err := d.db.Where("status = ? AND created_at < ?", StatusPending, cutoff).Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}
