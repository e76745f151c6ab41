package types

import (
	"time"

	"gorm.io/gorm"
)

// Order side constants used by the tradebook importer
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Market segments
const (
	SegmentEquity = "EQUITY"
	SegmentFnO    = "FNO"
)

// Product types
const (
	ProductIntraday = "INTRADAY"
	ProductDelivery = "DELIVERY"
)

// SupportedBrokers is the fixed set of broker identities the journal accepts.
// Kept in enumeration order; deterministic tie-breaks fall back to this order.
var SupportedBrokers = []string{
	"ZERODHA",
	"UPSTOX",
	"ANGELONE",
	"GROWW",
	"DHAN",
}

// IsSupportedBroker reports whether name is one of the known broker identities.
func IsSupportedBroker(name string) bool {
	for _, b := range SupportedBrokers {
		if b == name {
			return true
		}
	}
	return false
}

// RawOrder is a single buy or sell row taken from a broker export.
// Raw orders are ephemeral: they exist only between parsing and matching
// and are never persisted.
type RawOrder struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"` // BUY or SELL
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// Trade is a closed round trip: a fully matched buy+sell pair with realized
// PnL. Open positions never become Trades. PnL is always the derived value
// (exit - entry) * quantity; manual entries are recomputed on write.
type Trade struct {
	gorm.Model  `json:"-"`
	TradeID     string    `gorm:"uniqueIndex" json:"trade_id"`
	Date        time.Time `json:"date"` // timestamp of the exit leg
	Symbol      string    `json:"symbol"`
	Broker      string    `json:"broker"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	Quantity    int       `json:"quantity"`
	PnL         float64   `json:"pnl"`
	Segment     string    `json:"segment"`      // EQUITY or FNO
	ProductType string    `json:"product_type"` // INTRADAY or DELIVERY
	Confidence  int       `json:"confidence"`   // 1-10 journal rating
	Strategy    string    `json:"strategy"`
	Notes       string    `json:"notes,omitempty"`
	Mistake     string    `json:"mistake,omitempty"`
	AIAnalysis  string    `json:"ai_analysis,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DerivedPnL returns the PnL the trade must carry given its legs.
func (t *Trade) DerivedPnL() float64 {
	return (t.ExitPrice - t.EntryPrice) * float64(t.Quantity)
}

// GroupedTrade is a view-level aggregate of trades sharing a calendar day,
// symbol and broker. Regenerated on every aggregation pass, never persisted.
type GroupedTrade struct {
	Day      string    `json:"day"` // local calendar day, YYYY-MM-DD
	Date     time.Time `json:"date"`
	Symbol   string    `json:"symbol"`
	Broker   string    `json:"broker"`
	TotalPnL float64   `json:"total_pnl"`
	TotalQty int       `json:"total_qty"`
	Trades   []Trade   `json:"trades"`
}

// BrokerStatus tracks per-broker connection state and credentials.
type BrokerStatus struct {
	gorm.Model `json:"-"`
	Name       string     `gorm:"uniqueIndex" json:"name"`
	Connected  bool       `json:"connected"`
	APIKey     string     `json:"-"`
	APISecret  string     `json:"-"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Strategy is one entry of the user-managed strategy list.
type Strategy struct {
	gorm.Model `json:"-"`
	Name       string `gorm:"uniqueIndex" json:"name"`
}

// Settings is the singleton journal configuration row.
type Settings struct {
	gorm.Model     `json:"-"`
	Currency       string `json:"currency"`
	DefaultBroker  string `json:"default_broker"`
	DefaultSegment string `json:"default_segment"`
}
