package tradebook

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
)

// Broker exports arrive as loose CSV-ish text with arbitrary metadata above
// the actual order table. The parser locates the header row by matching
// column aliases, maps column positions, and reads every row below it that
// parses cleanly. Rows that fail to parse are skipped and counted.

// header aliases, all compared lowercase after trimming
var (
	symbolAliases = []string{"symbol", "tradingsymbol", "trading symbol", "scrip", "ticker", "instrument", "stock"}
	sideAliases   = []string{"side", "type", "trade type", "transaction", "transaction type", "buy/sell", "b/s"}
	priceAliases  = []string{"price", "avg price", "avg. price", "average price", "trade price", "rate"}
	qtyAliases    = []string{"qty", "qty.", "quantity", "filled qty", "filled quantity", "units"}
	timeAliases   = []string{"date", "time", "datetime", "date/time", "timestamp", "trade date", "trade time", "order execution time", "execution time"}
)

// timestamp layouts seen across broker exports, tried in order
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

type columnMap struct {
	symbol int
	side   int
	price  int
	qty    int
	time   int
}

// Parse extracts raw orders from an unstructured broker export.
// It returns a ParseError when no recognizable order table exists.
func Parse(text string) ([]types.RawOrder, error) {
	logger := log.With().Str("service", "tradebook").Logger()

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerIdx := -1
	var cols columnMap
	var delim string
	for i, line := range lines {
		if d, c, ok := matchHeader(line); ok {
			headerIdx = i
			cols = c
			delim = d
			break
		}
	}
	if headerIdx == -1 {
		return nil, types.NewParseError("no order table header found")
	}

	var orders []types.RawOrder
	skipped := 0
	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		order, ok := parseRow(line, delim, cols)
		if !ok {
			skipped++
			continue
		}
		orders = append(orders, order)
	}

	logger.Debug().
		Int("header_line", headerIdx).
		Int("orders", len(orders)).
		Int("skipped_rows", skipped).
		Msg("parsed tradebook export")

	if len(orders) == 0 {
		return nil, types.NewParseError("order table contains no parseable rows")
	}
	return orders, nil
}

// matchHeader tries to interpret a line as the order table header.
// Both comma and tab delimiters are attempted; the header must account for
// all five required columns.
func matchHeader(line string) (string, columnMap, bool) {
	for _, delim := range []string{",", "\t"} {
		fields := splitFields(line, delim)
		if len(fields) < 5 {
			continue
		}
		cols := columnMap{symbol: -1, side: -1, price: -1, qty: -1, time: -1}
		for i, f := range fields {
			name := strings.ToLower(strings.TrimSpace(f))
			switch {
			case cols.symbol == -1 && matchesAlias(name, symbolAliases):
				cols.symbol = i
			case cols.side == -1 && matchesAlias(name, sideAliases):
				cols.side = i
			case cols.price == -1 && matchesAlias(name, priceAliases):
				cols.price = i
			case cols.qty == -1 && matchesAlias(name, qtyAliases):
				cols.qty = i
			case cols.time == -1 && matchesAlias(name, timeAliases):
				cols.time = i
			}
		}
		if cols.symbol >= 0 && cols.side >= 0 && cols.price >= 0 && cols.qty >= 0 && cols.time >= 0 {
			return delim, cols, true
		}
	}
	return "", columnMap{}, false
}

func matchesAlias(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

func splitFields(line, delim string) []string {
	fields := strings.Split(line, delim)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// parseRow converts one data line into a RawOrder using the header's
// column positions. Returns false for rows that do not parse as orders.
func parseRow(line, delim string, cols columnMap) (types.RawOrder, bool) {
	fields := splitFields(line, delim)
	max := cols.symbol
	for _, c := range []int{cols.side, cols.price, cols.qty, cols.time} {
		if c > max {
			max = c
		}
	}
	if len(fields) <= max {
		return types.RawOrder{}, false
	}

	symbol := fields[cols.symbol]
	if symbol == "" {
		return types.RawOrder{}, false
	}

	side, ok := parseSide(fields[cols.side])
	if !ok {
		return types.RawOrder{}, false
	}

	price, err := parsePrice(fields[cols.price])
	if err != nil || price <= 0 {
		return types.RawOrder{}, false
	}

	qty, err := strconv.Atoi(strings.ReplaceAll(fields[cols.qty], ",", ""))
	if err != nil || qty <= 0 {
		return types.RawOrder{}, false
	}

	ts, ok := parseTimestamp(fields[cols.time])
	if !ok {
		return types.RawOrder{}, false
	}

	return types.RawOrder{
		Symbol:    NormalizeSymbol(symbol),
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Timestamp: ts,
	}, true
}

func parseSide(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy", "b", "bought":
		return types.SideBuy, true
	case "sell", "s", "sold":
		return types.SideSell, true
	}
	return "", false
}

func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "₹")
	cleaned = strings.TrimPrefix(cleaned, "Rs.")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
}

func parseTimestamp(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, cleaned, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
