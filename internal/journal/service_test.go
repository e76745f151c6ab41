package journal_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradelog/tradelog-api/internal/database"
	"github.com/tradelog/tradelog-api/internal/journal"
	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *journal.Service {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return journal.NewService(db)
}

func validTrade() *types.Trade {
	return &types.Trade{
		Symbol:     "INFY",
		Broker:     "ZERODHA",
		Date:       time.Date(2024, 5, 1, 14, 30, 0, 0, time.Local),
		EntryPrice: 1500,
		ExitPrice:  1520,
		Quantity:   5,
	}
}

func TestCreateTradeDerivesPnL(t *testing.T) {
	service := newTestService(t)

	trade := validTrade()
	trade.PnL = 99999 // caller-supplied pnl must be ignored
	if err := service.CreateTrade(trade); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}

	if trade.TradeID == "" {
		t.Fatal("trade id not assigned")
	}
	if trade.PnL != 100 {
		t.Fatalf("pnl not derived from legs: %f", trade.PnL)
	}

	stored, err := service.GetTrade(trade.TradeID)
	if err != nil {
		t.Fatalf("GetTrade: %v", err)
	}
	if stored == nil || stored.PnL != 100 {
		t.Fatalf("stored trade wrong: %+v", stored)
	}
}

func TestCreateTradeDefaults(t *testing.T) {
	service := newTestService(t)

	trade := validTrade()
	if err := service.CreateTrade(trade); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}

	if trade.Segment != types.SegmentEquity {
		t.Fatalf("default segment wrong: %s", trade.Segment)
	}
	if trade.ProductType != types.ProductDelivery {
		t.Fatalf("default product type wrong: %s", trade.ProductType)
	}
	if trade.Confidence != 5 {
		t.Fatalf("default confidence wrong: %d", trade.Confidence)
	}
	if trade.Strategy != "Manual" {
		t.Fatalf("default strategy wrong: %s", trade.Strategy)
	}
}

func TestCreateTradeValidation(t *testing.T) {
	service := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*types.Trade)
		field  string
	}{
		{"missing symbol", func(tr *types.Trade) { tr.Symbol = "" }, "symbol"},
		{"unknown broker", func(tr *types.Trade) { tr.Broker = "ROBINHOOD" }, "broker"},
		{"zero date", func(tr *types.Trade) { tr.Date = time.Time{} }, "date"},
		{"negative entry", func(tr *types.Trade) { tr.EntryPrice = -1 }, "entry_price"},
		{"zero exit", func(tr *types.Trade) { tr.ExitPrice = 0 }, "exit_price"},
		{"zero quantity", func(tr *types.Trade) { tr.Quantity = 0 }, "quantity"},
		{"confidence too high", func(tr *types.Trade) { tr.Confidence = 11 }, "confidence"},
		{"bad segment", func(tr *types.Trade) { tr.Segment = "CRYPTO" }, "segment"},
		{"bad product type", func(tr *types.Trade) { tr.ProductType = "MARGIN" }, "product_type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trade := validTrade()
			tc.mutate(trade)

			err := service.CreateTrade(trade)
			var validationErr *types.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Fatalf("wrong field flagged: %s", validationErr.Field)
			}
		})
	}
}

func TestUpdateTrade(t *testing.T) {
	service := newTestService(t)

	trade := validTrade()
	if err := service.CreateTrade(trade); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}

	updated := validTrade()
	updated.ExitPrice = 1550
	updated.Notes = "held through lunch"

	result, err := service.UpdateTrade(trade.TradeID, updated)
	if err != nil {
		t.Fatalf("UpdateTrade: %v", err)
	}

	if result.TradeID != trade.TradeID {
		t.Fatalf("trade id changed on update: %s", result.TradeID)
	}
	if result.PnL != 250 {
		t.Fatalf("pnl not recomputed: %f", result.PnL)
	}
	if result.Notes != "held through lunch" {
		t.Fatalf("notes not applied: %s", result.Notes)
	}
	if !result.CreatedAt.Equal(trade.CreatedAt) {
		t.Fatal("created_at should survive updates")
	}
}

func TestUpdateTradeNotFound(t *testing.T) {
	service := newTestService(t)

	_, err := service.UpdateTrade("TRD_missing", validTrade())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestBulkUpdateTrades(t *testing.T) {
	service := newTestService(t)

	first := validTrade()
	second := validTrade()
	second.Symbol = "TCS"
	for _, tr := range []*types.Trade{first, second} {
		if err := service.CreateTrade(tr); err != nil {
			t.Fatalf("CreateTrade: %v", err)
		}
	}

	updates := []types.Trade{*first, *second}
	updates[0].Strategy = "Breakout"
	updates[1].Confidence = 9

	if err := service.BulkUpdateTrades(updates); err != nil {
		t.Fatalf("BulkUpdateTrades: %v", err)
	}

	stored, err := service.GetTrade(first.TradeID)
	if err != nil {
		t.Fatalf("GetTrade: %v", err)
	}
	if stored.Strategy != "Breakout" {
		t.Fatalf("bulk update not applied: %s", stored.Strategy)
	}
}

func TestBulkUpdateTradesRejectsUnknownID(t *testing.T) {
	service := newTestService(t)

	trade := validTrade()
	if err := service.CreateTrade(trade); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}

	good := *trade
	good.Strategy = "Breakout"
	missing := *validTrade()
	missing.TradeID = "TRD_missing"

	err := service.BulkUpdateTrades([]types.Trade{good, missing})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}

	// Nothing from the failed batch may land.
	stored, err := service.GetTrade(trade.TradeID)
	if err != nil {
		t.Fatalf("GetTrade: %v", err)
	}
	if stored.Strategy == "Breakout" {
		t.Fatal("partial bulk update leaked into the store")
	}
}

func TestListTradesNewestFirst(t *testing.T) {
	service := newTestService(t)

	older := validTrade()
	newer := validTrade()
	newer.Symbol = "TCS"
	newer.Date = older.Date.AddDate(0, 0, 1)
	for _, tr := range []*types.Trade{older, newer} {
		if err := service.CreateTrade(tr); err != nil {
			t.Fatalf("CreateTrade: %v", err)
		}
	}

	trades, err := service.ListTrades()
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 2 || trades[0].Symbol != "TCS" {
		t.Fatalf("trades not ordered newest first: %+v", trades)
	}
}

func TestSetAIAnalysis(t *testing.T) {
	service := newTestService(t)

	trade := validTrade()
	if err := service.CreateTrade(trade); err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}

	updated, err := service.SetAIAnalysis(trade.TradeID, "solid entry, late exit")
	if err != nil {
		t.Fatalf("SetAIAnalysis: %v", err)
	}
	if updated.AIAnalysis != "solid entry, late exit" {
		t.Fatalf("analysis not cached: %s", updated.AIAnalysis)
	}
}

func TestReplaceStrategies(t *testing.T) {
	service := newTestService(t)

	if err := service.ReplaceStrategies([]string{"Breakout", "Reversal"}); err != nil {
		t.Fatalf("ReplaceStrategies: %v", err)
	}
	if err := service.ReplaceStrategies([]string{"Momentum"}); err != nil {
		t.Fatalf("ReplaceStrategies: %v", err)
	}

	names, err := service.Strategies()
	if err != nil {
		t.Fatalf("Strategies: %v", err)
	}
	if len(names) != 1 || names[0] != "Momentum" {
		t.Fatalf("strategy list not replaced: %v", names)
	}

	var validationErr *types.ValidationError
	if err := service.ReplaceStrategies([]string{""}); !errors.As(err, &validationErr) {
		t.Fatalf("empty strategy name should be rejected, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	service := newTestService(t)

	settings, err := service.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings.Currency != "INR" || settings.DefaultSegment != types.SegmentEquity {
		t.Fatalf("first-access defaults wrong: %+v", settings)
	}

	settings.DefaultBroker = "UPSTOX"
	if err := service.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	reloaded, err := service.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if reloaded.DefaultBroker != "UPSTOX" {
		t.Fatalf("settings not persisted: %+v", reloaded)
	}

	reloaded.DefaultBroker = "ETRADE"
	var validationErr *types.ValidationError
	if err := service.SaveSettings(reloaded); !errors.As(err, &validationErr) {
		t.Fatalf("unknown default broker should be rejected, got %v", err)
	}
}
