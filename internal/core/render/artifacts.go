// Package render writes the per-player text artifacts consumed by the
// dashboard generator: an overview summary plus the buy and sell ledger
// tables. The row set and order come from the reconciler; this package
// only owns the text layout.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
)

const tableHeader = "Date         | Time     | Type    | Item            | Qty    | Price        | Counterparty    | Trade ID"

type Writer struct {
	dir string
}

func NewWriter(dataDir string) (*Writer, error) {
	dir := filepath.Join(dataDir, "trade_overview")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create overview dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// WritePlayer rewrites a player's overview.txt, buys.txt, and sells.txt.
// doc may be nil when only marketplace data was available this run; the
// overview section is skipped in that case.
func (w *Writer) WritePlayer(username string, doc *snapshot.Document, buys, sells []trades.Row) error {
	userDir := filepath.Join(w.dir, username)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return fmt.Errorf("create player dir: %w", err)
	}

	if doc != nil {
		if err := os.WriteFile(filepath.Join(userDir, "overview.txt"), []byte(overviewText(username, doc)), 0o644); err != nil {
			return fmt.Errorf("write overview: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(userDir, "buys.txt"), []byte(ledgerText("PURCHASES (BUYS)", buys)), 0o644); err != nil {
		return fmt.Errorf("write buys: %w", err)
	}
	if err := os.WriteFile(filepath.Join(userDir, "sells.txt"), []byte(ledgerText("SALES (SELLS)", sells)), 0o644); err != nil {
		return fmt.Errorf("write sells: %w", err)
	}
	return nil
}

func ledgerText(title string, rows []trades.Row) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 100) + "\n")
	b.WriteString(tableHeader + "\n")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	if len(rows) == 0 {
		b.WriteString("No trade history found\n")
		return b.String()
	}
	for _, r := range rows {
		b.WriteString(rowLine(r) + "\n")
	}
	return b.String()
}

func rowLine(r trades.Row) string {
	return fmt.Sprintf("%-12s | %-8s | %-7s | %-15s | %-6d | %-12s | %-15s | %s",
		r.Date, r.Time, r.Direction, r.Item, r.Quantity, r.Price, r.Counterparty, shortID(r.TradeID))
}

func overviewText(username string, doc *snapshot.Document) string {
	farm := doc.Farm
	balance, _ := farm.Balance.Float64()
	coins, _ := farm.Coins.Int64()
	gems, _ := farm.Gems.Int64()

	var b strings.Builder
	fmt.Fprintf(&b, "TRADE OVERVIEW - %s\n", strings.ToUpper(username))
	fmt.Fprintf(&b, "Last Updated: %s\n", time.Now().Format("2006-01-02 03:04 PM"))
	b.WriteString(strings.Repeat("=", 100) + "\n")
	fmt.Fprintf(&b, "Balance: %.2f SFL | %d Coins | %d Gems\n", balance, coins, gems)
	fmt.Fprintf(&b, "Lifetime Earned: %.2f SFL | %.0f Coins\n",
		farm.Activity("SFL Earned"), farm.Activity("Coins Earned"))
	fmt.Fprintf(&b, "Lifetime Spent: %.2f SFL | %.0f Coins\n",
		farm.Activity("SFL Spent"), farm.Activity("Coins Spent"))
	fmt.Fprintf(&b, "Total Items Sold: %d | Trade Points: %.2f\n",
		farm.Trades.SoldCount, farm.Trades.TradePoints)
	fmt.Fprintf(&b, "Active Listings: %d\n\n", len(farm.Trades.Listings))

	b.WriteString("ACTIVE LISTINGS\n")
	b.WriteString(strings.Repeat("=", 100) + "\n")
	b.WriteString(tableHeader + "\n")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	b.WriteString(listingLines(farm.Trades.Listings))
	return b.String()
}

func listingLines(listings map[string]snapshot.Listing) string {
	if len(listings) == 0 {
		return "No active listings\n"
	}

	ids := make([]string, 0, len(listings))
	for id := range listings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		l := listings[id]
		date, clock := "Unknown", "Unknown"
		if l.CreatedAt > 0 {
			ts := time.UnixMilli(l.CreatedAt)
			date = ts.Format("2006-01-02")
			clock = ts.Format("03:04 PM")
		}
		items := make([]string, 0, len(l.Items))
		for name := range l.Items {
			items = append(items, name)
		}
		sort.Strings(items)
		for _, name := range items {
			display := name
			if r := []rune(display); len(r) > 15 {
				display = string(r[:15])
			}
			fmt.Fprintf(&b, "%-12s | %-8s | %-7s | %-15s | %-6.0f | %-12s | %-15s | %s\n",
				date, clock, "LISTING", display, l.Items[name], l.SFL.String()+" SFL", "-", shortID(id))
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
