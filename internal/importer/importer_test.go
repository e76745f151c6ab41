package importer_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradelog/tradelog-api/internal/database"
	"github.com/tradelog/tradelog-api/internal/importer"
	"github.com/tradelog/tradelog-api/internal/journal"
	"github.com/tradelog/tradelog-api/internal/types"
	"gorm.io/gorm"
)

const sampleExport = `Zerodha Tradebook Export
Account: AB1234

Symbol,Trade Type,Quantity,Price,Trade Date
NSE:INFY-EQ,buy,5,1500.00,2024-04-30 10:15:00
NSE:INFY-EQ,sell,5,1520.00,2024-04-30 14:05:00
NSE:TCS-EQ,buy,3,4000.00,2024-04-30 11:00:00
`

// captureNotifier records the first notification it receives.
type captureNotifier struct {
	notified chan notification
}

type notification struct {
	batchID string
	trades  []types.Trade
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{notified: make(chan notification, 1)}
}

func (n *captureNotifier) NotifyImported(batchID string, trades []types.Trade) {
	select {
	case n.notified <- notification{batchID: batchID, trades: trades}:
	default:
	}
}

func newTestImporter(t *testing.T) (*importer.Service, *captureNotifier, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "importer.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	notifier := newCaptureNotifier()
	return importer.NewService(db, notifier), notifier, db
}

func TestImportEndToEnd(t *testing.T) {
	service, notifier, db := newTestImporter(t)

	result, err := service.Import("ZERODHA", sampleExport, "key-1")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if result.Status != importer.StatusCompleted {
		t.Fatalf("batch not completed: %s", result.Status)
	}
	if result.OrdersParsed != 3 {
		t.Fatalf("orders parsed wrong: %d", result.OrdersParsed)
	}
	if result.TradesImported != 1 {
		t.Fatalf("trades imported wrong: %d", result.TradesImported)
	}
	if result.OpenQuantity != 3 {
		t.Fatalf("open quantity wrong: %d", result.OpenQuantity)
	}

	trades, err := journal.NewService(db).ListTrades()
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 persisted trade, got %d", len(trades))
	}
	trade := trades[0]
	if trade.Symbol != "INFY" || trade.Broker != "ZERODHA" || trade.PnL != 100 {
		t.Fatalf("persisted trade wrong: %+v", trade)
	}
	if trade.Notes != "Imported from tradebook" {
		t.Fatalf("import note missing: %s", trade.Notes)
	}

	select {
	case n := <-notifier.notified:
		if n.batchID != result.BatchID || len(n.trades) != 1 {
			t.Fatalf("notification wrong: %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never called")
	}
}

func TestImportIdempotentReplay(t *testing.T) {
	service, _, db := newTestImporter(t)

	first, err := service.Import("ZERODHA", sampleExport, "key-replay")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	second, err := service.Import("ZERODHA", sampleExport, "key-replay")
	if err != nil {
		t.Fatalf("replay Import: %v", err)
	}
	if second.BatchID != first.BatchID {
		t.Fatalf("replay created a new batch: %s vs %s", second.BatchID, first.BatchID)
	}

	trades, err := journal.NewService(db).ListTrades()
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("replay duplicated trades: %d", len(trades))
	}
}

func TestImportDistinctKeysImportAgain(t *testing.T) {
	service, _, db := newTestImporter(t)

	if _, err := service.Import("ZERODHA", sampleExport, "key-a"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := service.Import("ZERODHA", sampleExport, "key-b"); err != nil {
		t.Fatalf("second Import: %v", err)
	}

	trades, err := journal.NewService(db).ListTrades()
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	// Deduplication is the idempotency key's job, not the importer's.
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades across distinct keys, got %d", len(trades))
	}
}

func TestImportUnknownBroker(t *testing.T) {
	service, _, _ := newTestImporter(t)

	_, err := service.Import("ETRADE", sampleExport, "key-1")
	var validationErr *types.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestImportParseFailureRecordsBatch(t *testing.T) {
	service, _, _ := newTestImporter(t)

	_, err := service.Import("ZERODHA", "monthly statement\nno table here", "key-1")
	var parseErr *types.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	stale, err := service.GetDB().GetStalePendingBatches(0)
	if err != nil {
		t.Fatalf("GetStalePendingBatches: %v", err)
	}
	// The batch moved to FAILED, so nothing is left pending.
	if len(stale) != 0 {
		t.Fatalf("failed import left a pending batch: %+v", stale)
	}
}

func TestImportNoRoundTrips(t *testing.T) {
	service, notifier, _ := newTestImporter(t)

	export := "Symbol,Side,Price,Qty,Date\nINFY,buy,1500,5,2024-04-30 10:00:00\n"
	result, err := service.Import("UPSTOX", export, "key-1")
	if err != nil {
		t.Fatalf("zero matches should not be an error: %v", err)
	}
	if result.Status != importer.StatusCompleted || result.TradesImported != 0 {
		t.Fatalf("empty outcome wrong: %+v", result)
	}
	if result.OpenQuantity != 5 {
		t.Fatalf("open quantity wrong: %d", result.OpenQuantity)
	}

	select {
	case <-notifier.notified:
		t.Fatal("notifier must not fire for an empty import")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestImportUpdatesBrokerSyncTime(t *testing.T) {
	service, _, db := newTestImporter(t)

	if err := db.Create(&types.BrokerStatus{Name: "ZERODHA"}).Error; err != nil {
		t.Fatalf("seed broker: %v", err)
	}

	if _, err := service.Import("ZERODHA", sampleExport, "key-1"); err != nil {
		t.Fatalf("Import: %v", err)
	}

	var status types.BrokerStatus
	if err := db.Where("name = ?", "ZERODHA").First(&status).Error; err != nil {
		t.Fatalf("load broker status: %v", err)
	}
	if status.LastSyncAt == nil {
		t.Fatal("last_sync_at not stamped by import")
	}
}
