package importer

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/tradebook"
	"github.com/tradelog/tradelog-api/internal/types"
	"github.com/tradelog/tradelog-api/pkg/response"
	"gorm.io/gorm"
)

// Notifier announces newly imported trades to the outbound sync webhook.
// Implementations are fire-and-forget and must never block the import.
type Notifier interface {
	NotifyImported(batchID string, trades []types.Trade)
}

// Service orchestrates tradebook imports: parse, match, persist, notify.
// Imports are single-flight per broker; a second request for the same
// broker while one is running is rejected, not queued.
type Service struct {
	db       *Database
	notifier Notifier

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a new import service with the given database connection
func NewService(gormDB *gorm.DB, notifier Notifier) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		notifier: notifier,
		inFlight: make(map[string]bool),
	}
}

// Import converts a raw broker export into persisted closed trades.
//
// The idempotency key makes re-submission safe: a key already bound to a
// batch returns that batch's result instead of importing again. Zero
// matched round trips is a valid empty outcome, not an error.
func (s *Service) Import(broker, exportText, idempotencyKey string) (*ImportResult, error) {
	logger := log.With().
		Str("service", "importer").
		Str("broker", broker).
		Logger()

	if !types.IsSupportedBroker(broker) {
		return nil, types.NewValidationError("broker", "unknown broker: "+broker)
	}

	// Replay of a known key returns the original outcome.
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency record: %w", err)
	}
	if record != nil && record.ExpiresAt.After(time.Now()) {
		batch, err := s.db.GetBatch(record.ResourceID)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			return nil, gorm.ErrRecordNotFound
		}
		logger.Info().
			Str("batch_id", batch.BatchID).
			Msg("returning existing import for idempotency key")
		return batchResult(batch), nil
	}

	if !s.acquire(broker) {
		return nil, types.ErrImportInProgress
	}
	defer s.release(broker)

	batch := &ImportBatch{
		BatchID:   "IMP_" + uuid.New().String(),
		Broker:    broker,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.CreateBatch(batch); err != nil {
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	orders, err := tradebook.Parse(exportText)
	if err != nil {
		s.failBatch(batch, err)
		return nil, err
	}
	batch.OrdersParsed = len(orders)

	matched := tradebook.Match(orders, broker)
	batch.TradesFound = len(matched.Trades)
	batch.OpenQuantity = matched.OpenQuantity

	if err := s.db.CompleteBatch(batch, matched.Trades, idempotencyKey); err != nil {
		logger.Error().Err(err).Str("batch_id", batch.BatchID).Msg("failed to persist import batch")
		return nil, fmt.Errorf("failed to persist import batch: %w", err)
	}

	logger.Info().
		Str("batch_id", batch.BatchID).
		Int("orders_parsed", batch.OrdersParsed).
		Int("trades_imported", batch.TradesFound).
		Int("open_quantity_dropped", batch.OpenQuantity).
		Msg("import completed")

	if len(matched.Trades) > 0 {
		go s.notifier.NotifyImported(batch.BatchID, matched.Trades)
	}

	return batchResult(batch), nil
}

func (s *Service) failBatch(batch *ImportBatch, cause error) {
	batch.Status = StatusFailed
	batch.FailReason = cause.Error()
	batch.UpdatedAt = time.Now()
	if err := s.db.UpdateBatch(batch); err != nil {
		log.Error().Err(err).
			Str("service", "importer").
			Str("batch_id", batch.BatchID).
			Msg("failed to record failed import batch")
	}
}

func (s *Service) acquire(broker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[broker] {
		return false
	}
	s.inFlight[broker] = true
	return true
}

func (s *Service) release(broker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, broker)
}

// GetDB exposes the importer store for the background processor.
func (s *Service) GetDB() *Database {
	return s.db
}

func batchResult(batch *ImportBatch) *ImportResult {
	return &ImportResult{
		BatchID:        batch.BatchID,
		Broker:         batch.Broker,
		Status:         batch.Status,
		OrdersParsed:   batch.OrdersParsed,
		TradesImported: batch.TradesFound,
		OpenQuantity:   batch.OpenQuantity,
		Timestamp:      batch.UpdatedAt,
	}
}

// GinHandlers contains HTTP handlers for import endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for import endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ImportHandler handles POST requests to import a raw broker export.
// Requires an Idempotency-Key header; the request body is the export text.
// URL parameter: broker
func (h *GinHandlers) ImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil || len(body) == 0 {
			response.BadRequest(c, "Export text body is required")
			return
		}

		result, err := h.service.Import(c.Param("broker"), string(body), idempotencyKey)
		response.Handle(c, result, err)
	}
}

// GetBatchHandler handles GET requests for an import batch's status
// URL parameter: batch_id
func (h *GinHandlers) GetBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := h.service.db.GetBatch(c.Param("batch_id"))
		if err == nil && batch == nil {
			response.NotFound(c, "Import batch not found")
			return
		}
		response.Handle(c, batch, err)
	}
}
