package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/tradelog/tradelog-api/internal/types"
)

// EquityPoint is one step of the cumulative PnL series.
type EquityPoint struct {
	Date       time.Time `json:"date"`
	PnL        float64   `json:"pnl"`
	Cumulative float64   `json:"cumulative"`
}

// CumulativePnLSeries returns trades ordered ascending by date with a
// running PnL sum at each point. Single pass over the sorted slice; the
// input is not mutated.
func CumulativePnLSeries(trades []types.Trade) []EquityPoint {
	sorted := make([]types.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	series := make([]EquityPoint, 0, len(sorted))
	running := 0.0
	for _, t := range sorted {
		running += t.PnL
		series = append(series, EquityPoint{
			Date:       t.Date,
			PnL:        t.PnL,
			Cumulative: running,
		})
	}
	return series
}

// BucketStats summarizes trades sharing one attribute value (a strategy or
// a symbol). WinRate is kept unrounded for further computation; use
// DisplayWinRate for presentation.
type BucketStats struct {
	Key           string  `json:"key"`
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgConfidence float64 `json:"avg_confidence"`
	WinRate       float64 `json:"win_rate"`
}

// PerStrategyStats buckets trades by strategy label, sorted by key for a
// deterministic order.
func PerStrategyStats(trades []types.Trade) []BucketStats {
	return bucketBy(trades, func(t types.Trade) string { return t.Strategy })
}

// PerSymbolStats buckets trades by normalized symbol, sorted by key.
func PerSymbolStats(trades []types.Trade) []BucketStats {
	return bucketBy(trades, func(t types.Trade) string { return t.Symbol })
}

func bucketBy(trades []types.Trade, key func(types.Trade) string) []BucketStats {
	buckets := make(map[string]*BucketStats)
	confidence := make(map[string]int)

	for _, t := range trades {
		k := key(t)
		b, ok := buckets[k]
		if !ok {
			b = &BucketStats{Key: k}
			buckets[k] = b
		}
		b.Trades++
		if t.PnL > 0 {
			b.Wins++
		}
		b.TotalPnL += t.PnL
		confidence[k] += t.Confidence
	}

	stats := make([]BucketStats, 0, len(buckets))
	for k, b := range buckets {
		b.AvgConfidence = float64(confidence[k]) / float64(b.Trades)
		b.WinRate = float64(b.Wins) / float64(b.Trades) * 100
		stats = append(stats, *b)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Key < stats[j].Key })
	return stats
}

// DisplayWinRate rounds a win rate to two decimals for presentation.
func DisplayWinRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}
