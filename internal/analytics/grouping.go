package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tradelog/tradelog-api/internal/types"
)

// GroupByDaySymbolBroker rolls trades up by (local calendar day, symbol,
// broker). Group totals are sums over the constituent trades and the
// constituents keep their original order. The input slice is not mutated.
func GroupByDaySymbolBroker(trades []types.Trade) []types.GroupedTrade {
	index := make(map[string]int)
	var groups []types.GroupedTrade

	for _, t := range trades {
		local := t.Date.In(time.Local)
		day := local.Format("2006-01-02")
		key := fmt.Sprintf("%s|%s|%s", day, t.Symbol, t.Broker)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, types.GroupedTrade{
				Day:    day,
				Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local),
				Symbol: t.Symbol,
				Broker: t.Broker,
			})
		}
		groups[i].TotalPnL += t.PnL
		groups[i].TotalQty += t.Quantity
		groups[i].Trades = append(groups[i].Trades, t)
	}

	return groups
}

// SortField is the closed set of group attributes a view can sort on.
type SortField string

const (
	SortByDate     SortField = "date"
	SortBySymbol   SortField = "symbol"
	SortByBroker   SortField = "broker"
	SortByTotalPnL SortField = "total_pnl"
	SortByTotalQty SortField = "total_qty"
)

// SortDirection orders a sorted view.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortField validates a query-supplied sort field name.
func ParseSortField(raw string) (SortField, error) {
	switch SortField(strings.ToLower(raw)) {
	case SortByDate, SortBySymbol, SortByBroker, SortByTotalPnL, SortByTotalQty:
		return SortField(strings.ToLower(raw)), nil
	}
	return "", types.NewValidationError("sort", "unknown sort field: "+raw)
}

// SortGroups returns a sorted copy of groups. String fields compare
// case-insensitively, date compares by instant, and the sort is stable so
// equal keys keep their grouping order.
func SortGroups(groups []types.GroupedTrade, field SortField, dir SortDirection) []types.GroupedTrade {
	sorted := make([]types.GroupedTrade, len(groups))
	copy(sorted, groups)

	less := func(a, b types.GroupedTrade) bool {
		switch field {
		case SortBySymbol:
			return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol)
		case SortByBroker:
			return strings.ToLower(a.Broker) < strings.ToLower(b.Broker)
		case SortByTotalPnL:
			return a.TotalPnL < b.TotalPnL
		case SortByTotalQty:
			return a.TotalQty < b.TotalQty
		default:
			return a.Date.Before(b.Date)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if dir == SortAsc {
			return less(sorted[i], sorted[j])
		}
		return less(sorted[j], sorted[i])
	})
	return sorted
}

// SortState tracks the active sort of a grouped view. Toggling the active
// field reverses direction; switching fields resets to descending.
type SortState struct {
	Field     SortField
	Direction SortDirection
}

// Toggle applies a click on a column header to the sort state.
func (s *SortState) Toggle(field SortField) {
	if s.Field == field {
		if s.Direction == SortDesc {
			s.Direction = SortAsc
		} else {
			s.Direction = SortDesc
		}
		return
	}
	s.Field = field
	s.Direction = SortDesc
}

// GroupFilter selects groups by exact match on constituent trade
// attributes. Empty fields are inactive.
type GroupFilter struct {
	Broker      string
	Segment     string
	Strategy    string
	ProductType string
}

// FilterGroups returns the groups whose constituent trades satisfy every
// active filter. A group is included when at least one of its trades
// matches all active predicates. A trade without a product type counts as
// Delivery.
func FilterGroups(groups []types.GroupedTrade, filter GroupFilter) []types.GroupedTrade {
	if filter.Broker == "" && filter.Segment == "" && filter.Strategy == "" && filter.ProductType == "" {
		return groups
	}

	var filtered []types.GroupedTrade
	for _, g := range groups {
		for _, t := range g.Trades {
			if tradeMatches(t, filter) {
				filtered = append(filtered, g)
				break
			}
		}
	}
	return filtered
}

func tradeMatches(t types.Trade, filter GroupFilter) bool {
	if filter.Broker != "" && t.Broker != filter.Broker {
		return false
	}
	if filter.Segment != "" && t.Segment != filter.Segment {
		return false
	}
	if filter.Strategy != "" && t.Strategy != filter.Strategy {
		return false
	}
	if filter.ProductType != "" {
		productType := t.ProductType
		if productType == "" {
			productType = types.ProductDelivery
		}
		if productType != filter.ProductType {
			return false
		}
	}
	return true
}
