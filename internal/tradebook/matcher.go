package tradebook

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
)

// Defaults applied to trades emitted by the matcher. Imported trades carry
// a neutral confidence until the user rates them in the journal.
const (
	defaultConfidence = 5
	defaultStrategy   = "Manual"
	importedNote      = "Imported from tradebook"
)

// exchange prefixes and series suffixes stripped from broker symbols,
// matched case-insensitively
var (
	symbolPrefixes = []string{"NSE:", "BSE:"}
	symbolSuffixes = []string{"-EQ", "-BE"}
)

// NormalizeSymbol strips broker exchange prefixes and series suffixes.
// Matching is case-insensitive; the ticker's own casing is preserved.
func NormalizeSymbol(symbol string) string {
	s := strings.TrimSpace(symbol)
	upper := strings.ToUpper(s)
	for _, p := range symbolPrefixes {
		if strings.HasPrefix(upper, p) {
			s = s[len(p):]
			upper = upper[len(p):]
			break
		}
	}
	for _, suf := range symbolSuffixes {
		if strings.HasSuffix(upper, suf) {
			s = s[:len(s)-len(suf)]
			break
		}
	}
	return s
}

// pendingOrder is an order leg resting in a FIFO queue with quantity still
// available for matching.
type pendingOrder struct {
	order     types.RawOrder
	remaining int
}

// MatchResult carries the matcher output plus bookkeeping about what the
// input contained.
type MatchResult struct {
	Trades       []types.Trade
	OrdersSeen   int
	OpenQuantity int // unmatched quantity dropped as open positions
}

// Match pairs buy and sell orders per symbol using FIFO queues and emits one
// closed Trade per matched lot. Orders are processed in chronological order;
// an incoming order drains the opposite-side queue oldest-first, and any
// leftover quantity rests on its own side. Unmatched legs remaining at the
// end are open positions and produce no Trade. An input with no complete
// round trips yields zero trades, which is a valid result, not an error.
func Match(orders []types.RawOrder, broker string) MatchResult {
	logger := log.With().
		Str("service", "tradebook").
		Str("broker", broker).
		Logger()

	sorted := make([]types.RawOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	// per-symbol FIFO queues of resting legs
	buys := make(map[string][]*pendingOrder)
	sells := make(map[string][]*pendingOrder)

	var trades []types.Trade
	for i := range sorted {
		incoming := &pendingOrder{order: sorted[i], remaining: sorted[i].Quantity}
		symbol := NormalizeSymbol(incoming.order.Symbol)

		opposite := sells
		if incoming.order.Side == types.SideSell {
			opposite = buys
		}

		queue := opposite[symbol]
		for incoming.remaining > 0 && len(queue) > 0 {
			resting := queue[0]
			matched := incoming.remaining
			if resting.remaining < matched {
				matched = resting.remaining
			}

			trades = append(trades, buildTrade(symbol, broker, resting, incoming, matched))

			resting.remaining -= matched
			incoming.remaining -= matched
			if resting.remaining == 0 {
				queue = queue[1:]
			}
		}
		opposite[symbol] = queue

		if incoming.remaining > 0 {
			if incoming.order.Side == types.SideBuy {
				buys[symbol] = append(buys[symbol], incoming)
			} else {
				sells[symbol] = append(sells[symbol], incoming)
			}
		}
	}

	open := 0
	for _, queue := range buys {
		for _, p := range queue {
			open += p.remaining
		}
	}
	for _, queue := range sells {
		for _, p := range queue {
			open += p.remaining
		}
	}

	logger.Info().
		Int("orders", len(orders)).
		Int("trades", len(trades)).
		Int("open_quantity_dropped", open).
		Msg("completed tradebook matching")

	return MatchResult{
		Trades:       trades,
		OrdersSeen:   len(orders),
		OpenQuantity: open,
	}
}

// buildTrade emits the closed trade for one matched lot. The buy leg always
// supplies the entry price and the sell leg the exit price, which keeps
// pnl = (exit - entry) * qty correct for both long and short round trips.
// The trade date is the timestamp of the liquidating (later) leg.
func buildTrade(symbol, broker string, resting, incoming *pendingOrder, matched int) types.Trade {
	buyLeg := resting.order
	sellLeg := incoming.order
	if incoming.order.Side == types.SideBuy {
		buyLeg = incoming.order
		sellLeg = resting.order
	}

	trade := types.Trade{
		TradeID:     "TRD_" + uuid.New().String(),
		Date:        incoming.order.Timestamp,
		Symbol:      symbol,
		Broker:      broker,
		EntryPrice:  buyLeg.Price,
		ExitPrice:   sellLeg.Price,
		Quantity:    matched,
		Segment:     types.SegmentEquity,
		ProductType: types.ProductDelivery,
		Confidence:  defaultConfidence,
		Strategy:    defaultStrategy,
		Notes:       importedNote,
	}
	trade.PnL = trade.DerivedPnL()
	return trade
}
