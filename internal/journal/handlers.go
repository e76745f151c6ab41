package journal

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradelog/tradelog-api/internal/analytics"
	"github.com/tradelog/tradelog-api/internal/types"
	"github.com/tradelog/tradelog-api/pkg/response"
)

// FeedbackProvider produces free-text feedback for a trade. Implementations
// must degrade to a placeholder rather than fail.
type FeedbackProvider interface {
	TradeFeedback(trade *types.Trade) string
}

// GinHandlers contains HTTP handlers for journal and dashboard endpoints
type GinHandlers struct {
	service *Service
	ai      FeedbackProvider
}

// NewGinHandlers creates a new set of HTTP handlers for journal endpoints
func NewGinHandlers(service *Service, ai FeedbackProvider) *GinHandlers {
	return &GinHandlers{
		service: service,
		ai:      ai,
	}
}

// ListTradesHandler handles GET requests for the full trade collection
func (h *GinHandlers) ListTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.ListTrades()
		response.Handle(c, trades, err)
	}
}

// CreateTradeHandler handles POST requests for manual trade entry
func (h *GinHandlers) CreateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var trade types.Trade
		if err := c.ShouldBindJSON(&trade); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.CreateTrade(&trade); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, trade)
	}
}

// UpdateTradeHandler handles PUT requests replacing a single trade record
// URL parameter: trade_id
func (h *GinHandlers) UpdateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")

		var trade types.Trade
		if err := c.ShouldBindJSON(&trade); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		updated, err := h.service.UpdateTrade(tradeID, &trade)
		response.Handle(c, updated, err)
	}
}

// BulkUpdateTradesHandler handles PUT requests replacing a batch of trades
// in a single all-or-nothing write
func (h *GinHandlers) BulkUpdateTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var trades []types.Trade
		if err := c.ShouldBindJSON(&trades); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if len(trades) == 0 {
			response.BadRequest(c, "empty trade batch")
			return
		}

		if err := h.service.BulkUpdateTrades(trades); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"updated": len(trades)})
	}
}

// MetricsHandler handles GET requests for the dashboard summary
func (h *GinHandlers) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.Snapshot()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, analytics.Metrics(trades))
	}
}

// GroupsHandler handles GET requests for the grouped trade view.
// Query parameters: sort, direction, broker, segment, strategy, product_type
func (h *GinHandlers) GroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.Snapshot()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		field := analytics.SortByDate
		if raw := c.Query("sort"); raw != "" {
			field, err = analytics.ParseSortField(raw)
			if err != nil {
				response.Handle(c, nil, err)
				return
			}
		}
		direction := analytics.SortDesc
		if strings.EqualFold(c.Query("direction"), string(analytics.SortAsc)) {
			direction = analytics.SortAsc
		}

		groups := analytics.GroupByDaySymbolBroker(trades)
		groups = analytics.FilterGroups(groups, analytics.GroupFilter{
			Broker:      c.Query("broker"),
			Segment:     c.Query("segment"),
			Strategy:    c.Query("strategy"),
			ProductType: c.Query("product_type"),
		})
		groups = analytics.SortGroups(groups, field, direction)

		response.Success(c, groups)
	}
}

// EquityCurveHandler handles GET requests for the cumulative PnL series
func (h *GinHandlers) EquityCurveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.Snapshot()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, analytics.CumulativePnLSeries(trades))
	}
}

// StrategyStatsHandler handles GET requests for per-strategy statistics
func (h *GinHandlers) StrategyStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.Snapshot()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, analytics.PerStrategyStats(trades))
	}
}

// SymbolStatsHandler handles GET requests for per-symbol statistics
func (h *GinHandlers) SymbolStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.Snapshot()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, analytics.PerSymbolStats(trades))
	}
}

// FeedbackHandler handles POST requests for AI feedback on a trade.
// Collaborator failures degrade to a placeholder; this endpoint only fails
// when the trade does not exist or the store write fails.
func (h *GinHandlers) FeedbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")

		trade, err := h.service.GetTrade(tradeID)
		if err != nil || trade == nil {
			response.NotFound(c, "Trade not found")
			return
		}

		feedback := h.ai.TradeFeedback(trade)
		updated, err := h.service.SetAIAnalysis(tradeID, feedback)
		response.Handle(c, updated, err)
	}
}

// GetStrategiesHandler handles GET requests for the strategy list
func (h *GinHandlers) GetStrategiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		strategies, err := h.service.Strategies()
		response.Handle(c, strategies, err)
	}
}

// PutStrategiesHandler handles PUT requests replacing the strategy list
func (h *GinHandlers) PutStrategiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Strategies []string `json:"strategies" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.ReplaceStrategies(request.Strategies); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"strategies": request.Strategies})
	}
}

// GetSettingsHandler handles GET requests for journal settings
func (h *GinHandlers) GetSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := h.service.Settings()
		response.Handle(c, settings, err)
	}
}

// PutSettingsHandler handles PUT requests replacing journal settings
func (h *GinHandlers) PutSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var settings types.Settings
		if err := c.ShouldBindJSON(&settings); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.SaveSettings(&settings); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, settings)
	}
}
