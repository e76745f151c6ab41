package tradebook_test

import (
	"errors"
	"testing"

	"github.com/tradelog/tradelog-api/internal/tradebook"
	"github.com/tradelog/tradelog-api/internal/types"
)

const zerodhaExport = `Zerodha Tradebook Export
Account: AB1234
Generated on 2024-05-01

Symbol,Trade Type,Quantity,Price,Trade Date
NSE:SOUTHBANK-EQ,buy,10,27.50,2024-04-30 10:15:00
NSE:SOUTHBANK-EQ,sell,10,29.00,2024-04-30 14:05:00
NSE:INFY-EQ,BUY,5,"1500.25",2024-04-30 11:00:00
`

func TestParseLocatesTableBelowNoise(t *testing.T) {
	orders, err := tradebook.Parse(zerodhaExport)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 2 {
		// The quoted price row does not parse as a float and is skipped.
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}

	first := orders[0]
	if first.Symbol != "SOUTHBANK" {
		t.Fatalf("symbol not normalized: %s", first.Symbol)
	}
	if first.Side != types.SideBuy {
		t.Fatalf("side wrong: %s", first.Side)
	}
	if first.Price != 27.50 || first.Quantity != 10 {
		t.Fatalf("row values wrong: price=%f qty=%d", first.Price, first.Quantity)
	}
	if first.Timestamp.Hour() != 10 || first.Timestamp.Minute() != 15 {
		t.Fatalf("timestamp wrong: %v", first.Timestamp)
	}

	if orders[1].Side != types.SideSell {
		t.Fatalf("second row side wrong: %s", orders[1].Side)
	}
}

func TestParseTabDelimited(t *testing.T) {
	export := "scrip\tside\trate\tqty\tdate\n" +
		"TCS\tB\t4000.50\t3\t2024-04-30\n" +
		"TCS\tS\t4100\t3\t2024-04-30\n"

	orders, err := tradebook.Parse(export)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].Side != types.SideBuy || orders[1].Side != types.SideSell {
		t.Fatalf("single-letter sides not recognized: %s %s", orders[0].Side, orders[1].Side)
	}
}

func TestParseNoTableIsParseError(t *testing.T) {
	_, err := tradebook.Parse("monthly statement\nno table here\njust noise")
	if err == nil {
		t.Fatal("expected ParseError")
	}
	var parseErr *types.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *types.ParseError, got %T", err)
	}
}

func TestParseHeaderWithoutRowsIsParseError(t *testing.T) {
	export := "Symbol,Side,Price,Qty,Date\nnot,a,real,row\n"
	_, err := tradebook.Parse(export)
	var parseErr *types.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *types.ParseError, got %v", err)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	export := `Symbol,Side,Price,Qty,Date
INFY,buy,1500,5,2024-04-30 10:00:00
INFY,hold,1500,5,2024-04-30 10:00:00
INFY,sell,-10,5,2024-04-30 10:00:00
INFY,sell,1520,0,2024-04-30 10:00:00
INFY,sell,1520,5,2024-04-30 15:00:00
`
	orders, err := tradebook.Parse(export)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected only the 2 clean rows, got %d", len(orders))
	}
}

func TestParsePriceCleanup(t *testing.T) {
	export := "Symbol,Side,Price,Qty,Date\nINFY,buy,₹1500.25,5,2024-04-30\n"
	orders, err := tradebook.Parse(export)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if orders[0].Price != 1500.25 {
		t.Fatalf("currency prefix not stripped: %f", orders[0].Price)
	}
}
