package importer

import (
	"time"

	"gorm.io/gorm"
)

// Import batch statuses
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// ImportBatch records one tradebook import attempt. A batch starts PENDING
// and moves to COMPLETED together with its trades in a single transaction,
// or to FAILED when parsing or matching rejects the input.
type ImportBatch struct {
	gorm.Model   `json:"-"`
	BatchID      string    `gorm:"uniqueIndex" json:"batch_id"`
	Broker       string    `json:"broker"`
	Status       string    `json:"status"` // PENDING, COMPLETED, FAILED
	OrdersParsed int       `json:"orders_parsed"`
	TradesFound  int       `json:"trades_found"`
	OpenQuantity int       `json:"open_quantity_dropped"`
	FailReason   string    `json:"fail_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdempotencyRecord maps a caller-supplied key to the import batch it
// produced, making re-submission of the same export safe.
type IdempotencyRecord struct {
	gorm.Model
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	ResourceID     string    `json:"resource_id"`
	ResourceType   string    `json:"resource_type"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ImportResult is the outcome returned to the caller.
type ImportResult struct {
	BatchID        string    `json:"batch_id"`
	Broker         string    `json:"broker"`
	Status         string    `json:"status"`
	OrdersParsed   int       `json:"orders_parsed"`
	TradesImported int       `json:"trades_imported"`
	OpenQuantity   int       `json:"open_quantity_dropped"`
	Timestamp      time.Time `json:"timestamp"`
}
