// Package analytics is the journal's aggregation engine: pure functions over
// an immutable trade collection. Nothing here performs I/O or mutates its
// input, so every function is safe to call on each view refresh.
package analytics

import (
	"time"

	"github.com/tradelog/tradelog-api/internal/types"
)

// DashboardMetrics is the portfolio-level summary shown on the dashboard.
type DashboardMetrics struct {
	TotalPnL      float64 `json:"total_pnl"`
	WinRate       float64 `json:"win_rate"`
	AvgTradeValue float64 `json:"avg_trade_value"`
	TotalTrades   int     `json:"total_trades"`
	TradesToday   int     `json:"trades_today"`
	BestBroker    string  `json:"best_broker"`
}

// Metrics computes the dashboard summary for the current local day.
func Metrics(trades []types.Trade) DashboardMetrics {
	return MetricsAt(trades, time.Now())
}

// MetricsAt computes the dashboard summary treating now as the current
// instant. TradesToday counts trades on now's local calendar day.
//
// BestBroker is the broker with the highest summed PnL. When brokers tie,
// the lexicographically smallest broker name wins; "N/A" when there are no
// trades.
func MetricsAt(trades []types.Trade, now time.Time) DashboardMetrics {
	m := DashboardMetrics{BestBroker: "N/A"}
	if len(trades) == 0 {
		return m
	}

	wins := 0
	brokerPnL := make(map[string]float64)
	today := now.In(time.Local)
	for _, t := range trades {
		m.TotalPnL += t.PnL
		if t.PnL > 0 {
			wins++
		}
		if sameLocalDay(t.Date, today) {
			m.TradesToday++
		}
		brokerPnL[t.Broker] += t.PnL
	}

	m.TotalTrades = len(trades)
	m.WinRate = float64(wins) / float64(m.TotalTrades) * 100
	m.AvgTradeValue = m.TotalPnL / float64(m.TotalTrades)

	best := ""
	var bestPnL float64
	for broker, pnl := range brokerPnL {
		if best == "" || pnl > bestPnL || (pnl == bestPnL && broker < best) {
			best = broker
			bestPnL = pnl
		}
	}
	m.BestBroker = best

	return m
}

func sameLocalDay(a, b time.Time) bool {
	al, bl := a.In(time.Local), b.In(time.Local)
	return al.Year() == bl.Year() && al.YearDay() == bl.YearDay()
}
