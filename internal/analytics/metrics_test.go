package analytics_test

import (
	"testing"
	"time"

	"github.com/tradelog/tradelog-api/internal/analytics"
	"github.com/tradelog/tradelog-api/internal/types"
)

func trade(symbol, broker string, pnl float64, day time.Time) types.Trade {
	entry := 100.0
	return types.Trade{
		Symbol:      symbol,
		Broker:      broker,
		EntryPrice:  entry,
		ExitPrice:   entry + pnl,
		Quantity:    1,
		PnL:         pnl,
		Segment:     types.SegmentEquity,
		ProductType: types.ProductDelivery,
		Strategy:    "Manual",
		Confidence:  5,
		Date:        day,
	}
}

func TestMetricsEmpty(t *testing.T) {
	m := analytics.Metrics(nil)
	if m.TotalPnL != 0 || m.WinRate != 0 || m.AvgTradeValue != 0 {
		t.Fatalf("empty metrics should be zero: %+v", m)
	}
	if m.TotalTrades != 0 || m.TradesToday != 0 {
		t.Fatalf("empty counts should be zero: %+v", m)
	}
	if m.BestBroker != "N/A" {
		t.Fatalf("empty best broker should be N/A, got %s", m.BestBroker)
	}
}

func TestMetricsAggregates(t *testing.T) {
	now := time.Date(2024, 5, 1, 15, 30, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)

	trades := []types.Trade{
		trade("INFY", "ZERODHA", 50, now),
		trade("TCS", "ZERODHA", -20, now),
		trade("INFY", "UPSTOX", 30, yesterday),
		trade("SBIN", "UPSTOX", -10, yesterday),
	}

	m := analytics.MetricsAt(trades, now)
	if m.TotalPnL != 50 {
		t.Fatalf("total pnl wrong: %f", m.TotalPnL)
	}
	if m.WinRate != 50 {
		t.Fatalf("win rate wrong: %f", m.WinRate)
	}
	if m.AvgTradeValue != 12.5 {
		t.Fatalf("avg trade value wrong: %f", m.AvgTradeValue)
	}
	if m.TotalTrades != 4 {
		t.Fatalf("total trades wrong: %d", m.TotalTrades)
	}
	if m.TradesToday != 2 {
		t.Fatalf("trades today wrong: %d", m.TradesToday)
	}
	// ZERODHA nets +30, UPSTOX nets +20
	if m.BestBroker != "ZERODHA" {
		t.Fatalf("best broker wrong: %s", m.BestBroker)
	}
}

func TestMetricsBestBrokerTieBreak(t *testing.T) {
	now := time.Now()
	trades := []types.Trade{
		trade("A", "UPSTOX", 100, now),
		trade("B", "DHAN", 100, now),
	}

	// Equal summed PnL: the lexicographically smallest broker wins.
	m := analytics.MetricsAt(trades, now)
	if m.BestBroker != "DHAN" {
		t.Fatalf("tie-break wrong: %s", m.BestBroker)
	}
}

func TestMetricsIdempotent(t *testing.T) {
	now := time.Now()
	trades := []types.Trade{
		trade("INFY", "ZERODHA", 10, now),
		trade("TCS", "GROWW", -5, now),
	}

	first := analytics.MetricsAt(trades, now)
	second := analytics.MetricsAt(trades, now)
	if first != second {
		t.Fatalf("metrics not idempotent: %+v vs %+v", first, second)
	}
}
