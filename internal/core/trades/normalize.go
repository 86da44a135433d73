package trades

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "03:04 PM"

	// displayWidth bounds item and counterparty names for tabular
	// alignment. Truncation is display-only; the trade ID and the
	// direction are derived from the raw record before truncation.
	displayWidth = 15

	// UnknownDate is the sentinel for trades with a missing or invalid
	// fulfillment timestamp. Rows carrying it sort to the oldest end.
	UnknownDate = "Unknown Date"
)

// Row is the canonical display form of a trade relative to one player.
// Rows are what the ledger stores, dedups, and orders.
type Row struct {
	Date         string
	Time         string
	Direction    Direction
	Item         string
	Quantity     int
	Price        string
	Counterparty string
	TradeID      string
}

// FulfilledTime parses the row's date and time back into a timestamp
// for ordering. Rows with unparseable timestamps report ok=false and
// are treated as the minimum time, never dropped.
func (r Row) FulfilledTime() (time.Time, bool) {
	ts, err := time.Parse(dateLayout+" "+timeLayout, r.Date+" "+r.Time)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Normalize converts a raw trade into its ledger row relative to the
// subject player. Item names resolve through the mapping with
// collection-prefixed fallback; a missing timestamp yields the
// UnknownDate sentinel rather than an error.
func Normalize(t Trade, subject string, items ItemMapping) (Row, error) {
	if err := t.Validate(); err != nil {
		return Row{}, err
	}

	date, clock := formatFulfilledAt(t.FulfilledAt)

	return Row{
		Date:         date,
		Time:         clock,
		Direction:    t.DirectionFor(subject),
		Item:         truncate(items.Name(t.ItemID, t.Collection), displayWidth),
		Quantity:     t.Quantity,
		Price:        fmt.Sprintf("%s SFL", t.SFL.String()),
		Counterparty: truncate(t.CounterpartyFor(subject), displayWidth),
		TradeID:      t.ID,
	}, nil
}

func formatFulfilledAt(ms int64) (date, clock string) {
	if ms <= 0 {
		return UnknownDate, ""
	}
	ts := time.UnixMilli(ms)
	return ts.Format(dateLayout), ts.Format(timeLayout)
}

// truncate bounds a display string to width characters, not bytes, so
// a multi-byte rune is never split into invalid UTF-8.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s
}
