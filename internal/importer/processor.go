package importer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Processor is the importer's background janitor: it purges expired
// idempotency records and fails batches stuck in PENDING, typically the
// leftovers of a crash mid-import.
type Processor struct {
	db            *Database
	processDelay  time.Duration // Time between cleanup passes
	pendingMaxAge time.Duration
}

func NewProcessor(db *Database) *Processor {
	return &Processor{
		db:            db,
		processDelay:  5 * time.Minute,
		pendingMaxAge: time.Hour,
	}
}

// Start begins the cleanup loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "import_processor").Logger()
	logger.Info().Msg("starting import processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down import processor")
			return
		case <-ticker.C:
			if err := p.sweep(); err != nil {
				logger.Error().Err(err).Msg("import cleanup pass failed")
			}
		}
	}
}

func (p *Processor) sweep() error {
	logger := log.With().Str("component", "import_processor").Logger()

	purged, err := p.db.PurgeExpiredIdempotencyRecords()
	if err != nil {
		return err
	}
	if purged > 0 {
		logger.Info().Int64("purged", purged).Msg("removed expired idempotency records")
	}

	stale, err := p.db.GetStalePendingBatches(p.pendingMaxAge)
	if err != nil {
		return err
	}

	for i := range stale {
		batch := stale[i]
		batch.Status = StatusFailed
		batch.FailReason = "abandoned: import did not complete"
		batch.UpdatedAt = time.Now()
		if err := p.db.UpdateBatch(&batch); err != nil {
			logger.Error().
				Err(err).
				Str("batch_id", batch.BatchID).
				Msg("failed to mark stale batch")
			continue
		}
		logger.Warn().
			Str("batch_id", batch.BatchID).
			Str("broker", batch.Broker).
			Msg("marked abandoned import batch as failed")
	}

	return nil
}
