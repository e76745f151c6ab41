package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

// Service owns the persisted trade collection. It is the single writer;
// the aggregation engine only ever reads snapshots taken through it.
type Service struct {
	db *Database
}

// NewService creates a new journal service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// CreateTrade validates and persists a manually entered trade. The PnL is
// always recomputed from the legs; a caller-supplied pnl value is ignored.
func (s *Service) CreateTrade(trade *types.Trade) error {
	logger := log.With().
		Str("service", "journal").
		Str("symbol", trade.Symbol).
		Logger()

	applyDefaults(trade)
	if err := ValidateTrade(trade); err != nil {
		return err
	}

	trade.TradeID = "TRD_" + uuid.New().String()
	trade.PnL = trade.DerivedPnL()
	trade.CreatedAt = time.Now()
	trade.UpdatedAt = time.Now()

	if err := s.db.CreateTrade(trade); err != nil {
		logger.Error().Err(err).Msg("failed to persist trade")
		return err
	}

	logger.Info().
		Str("trade_id", trade.TradeID).
		Float64("pnl", trade.PnL).
		Msg("created trade")
	return nil
}

// GetTrade retrieves a trade by its ID
func (s *Service) GetTrade(tradeID string) (*types.Trade, error) {
	return s.db.GetTrade(tradeID)
}

// UpdateTrade replaces an existing trade record in full. The stored PnL is
// recomputed from the updated legs.
func (s *Service) UpdateTrade(tradeID string, updated *types.Trade) (*types.Trade, error) {
	existing, err := s.db.GetTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, gorm.ErrRecordNotFound
	}

	applyDefaults(updated)
	if err := ValidateTrade(updated); err != nil {
		return nil, err
	}

	updated.Model = existing.Model
	updated.TradeID = existing.TradeID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	updated.PnL = updated.DerivedPnL()

	if err := s.db.UpdateTrade(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkUpdateTrades validates and replaces a batch of trades atomically.
// Every record must reference an existing trade.
func (s *Service) BulkUpdateTrades(updates []types.Trade) error {
	logger := log.With().Str("service", "journal").Logger()

	prepared := make([]types.Trade, 0, len(updates))
	for i := range updates {
		u := updates[i]
		if u.TradeID == "" {
			return types.NewValidationError("trade_id", "required for bulk update")
		}
		existing, err := s.db.GetTrade(u.TradeID)
		if err != nil {
			return err
		}
		if existing == nil {
			return gorm.ErrRecordNotFound
		}

		applyDefaults(&u)
		if err := ValidateTrade(&u); err != nil {
			return err
		}
		u.Model = existing.Model
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = time.Now()
		u.PnL = u.DerivedPnL()
		prepared = append(prepared, u)
	}

	if err := s.db.UpdateTradesBulk(prepared); err != nil {
		logger.Error().Err(err).Int("count", len(prepared)).Msg("bulk update failed")
		return err
	}

	logger.Info().Int("count", len(prepared)).Msg("bulk updated trades")
	return nil
}

// ListTrades returns the full trade collection, newest first.
func (s *Service) ListTrades() ([]types.Trade, error) {
	return s.db.GetAllTrades()
}

// Snapshot returns the trade collection for the aggregation engine.
func (s *Service) Snapshot() ([]types.Trade, error) {
	return s.db.GetAllTrades()
}

// SetAIAnalysis caches feedback text on a trade.
func (s *Service) SetAIAnalysis(tradeID, analysis string) (*types.Trade, error) {
	trade, err := s.db.GetTrade(tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, gorm.ErrRecordNotFound
	}

	trade.AIAnalysis = analysis
	trade.UpdatedAt = time.Now()
	if err := s.db.UpdateTrade(trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// Strategies returns the user-managed strategy list.
func (s *Service) Strategies() ([]string, error) {
	return s.db.GetStrategies()
}

// ReplaceStrategies swaps the strategy list.
func (s *Service) ReplaceStrategies(names []string) error {
	for _, name := range names {
		if name == "" {
			return types.NewValidationError("strategy", "empty name")
		}
	}
	return s.db.ReplaceStrategies(names)
}

// Settings returns the singleton settings row.
func (s *Service) Settings() (*types.Settings, error) {
	return s.db.GetSettings()
}

// SaveSettings replaces the singleton settings row.
func (s *Service) SaveSettings(settings *types.Settings) error {
	if settings.DefaultBroker != "" && !types.IsSupportedBroker(settings.DefaultBroker) {
		return types.NewValidationError("default_broker", "unknown broker: "+settings.DefaultBroker)
	}
	return s.db.SaveSettings(settings)
}

// applyDefaults fills optional fields before validation.
func applyDefaults(trade *types.Trade) {
	if trade.Segment == "" {
		trade.Segment = types.SegmentEquity
	}
	if trade.ProductType == "" {
		trade.ProductType = types.ProductDelivery
	}
	if trade.Confidence == 0 {
		trade.Confidence = 5
	}
	if trade.Strategy == "" {
		trade.Strategy = "Manual"
	}
}

// ValidateTrade rejects malformed trade fields before they reach the store.
func ValidateTrade(trade *types.Trade) error {
	if trade.Symbol == "" {
		return types.NewValidationError("symbol", "required")
	}
	if !types.IsSupportedBroker(trade.Broker) {
		return types.NewValidationError("broker", "unknown broker: "+trade.Broker)
	}
	if trade.Date.IsZero() {
		return types.NewValidationError("date", "required")
	}
	if trade.EntryPrice <= 0 {
		return types.NewValidationError("entry_price", "must be positive")
	}
	if trade.ExitPrice <= 0 {
		return types.NewValidationError("exit_price", "must be positive")
	}
	if trade.Quantity <= 0 {
		return types.NewValidationError("quantity", "must be positive")
	}
	if trade.Confidence < 1 || trade.Confidence > 10 {
		return types.NewValidationError("confidence", "must be between 1 and 10")
	}
	if trade.Segment != types.SegmentEquity && trade.Segment != types.SegmentFnO {
		return types.NewValidationError("segment", "must be EQUITY or FNO")
	}
	if trade.ProductType != types.ProductIntraday && trade.ProductType != types.ProductDelivery {
		return types.NewValidationError("product_type", "must be INTRADAY or DELIVERY")
	}
	return nil
}
