package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlayerArtifacts(t *testing.T) {
	dataDir := t.TempDir()
	w, err := NewWriter(dataDir)
	require.NoError(t, err)

	doc, err := snapshot.ParseFarm([]byte(`{
		"id": 12345,
		"farm": {
			"username": "Alice",
			"balance": "42.5",
			"coins": 1200,
			"gems": 30,
			"trades": {"soldCount": 7, "tradePoints": 12.25}
		}
	}`))
	require.NoError(t, err)

	buys := []trades.Row{{
		Date: "2025-01-02", Time: "09:00 AM", Direction: trades.Buy,
		Item: "Milk", Quantity: 2, Price: "5 SFL", Counterparty: "bob",
		TradeID: "trade-id-longer-than-eight",
	}}
	require.NoError(t, w.WritePlayer("alice", doc, buys, nil))

	userDir := filepath.Join(dataDir, "trade_overview", "alice")

	overview, err := os.ReadFile(filepath.Join(userDir, "overview.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "TRADE OVERVIEW - ALICE")
	assert.Contains(t, string(overview), "Balance: 42.50 SFL | 1200 Coins | 30 Gems")
	assert.Contains(t, string(overview), "Total Items Sold: 7 | Trade Points: 12.25")
	assert.Contains(t, string(overview), "No active listings")

	buysTxt, err := os.ReadFile(filepath.Join(userDir, "buys.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(buysTxt), "PURCHASES (BUYS)")
	assert.Contains(t, string(buysTxt), tableHeader)
	// Trade IDs render shortened to eight characters.
	assert.Contains(t, string(buysTxt), "trade-id")
	assert.NotContains(t, string(buysTxt), "trade-id-longer")

	sellsTxt, err := os.ReadFile(filepath.Join(userDir, "sells.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(sellsTxt), "No trade history found")
}

func TestWritePlayerWithoutSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	w, err := NewWriter(dataDir)
	require.NoError(t, err)

	// A partial run has ledger rows but no farm document; the overview is
	// left untouched.
	require.NoError(t, w.WritePlayer("alice", nil, nil, nil))

	userDir := filepath.Join(dataDir, "trade_overview", "alice")
	_, err = os.Stat(filepath.Join(userDir, "overview.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(userDir, "buys.txt"))
	assert.NoError(t, err)
}

func TestOverviewListsActiveListings(t *testing.T) {
	doc, err := snapshot.ParseFarm([]byte(`{
		"farm": {
			"username": "Alice",
			"trades": {
				"listings": {
					"listing-abcdefgh-1": {"items": {"Milk": 3, "Ñandú Feather Deluxe": 1}, "sfl": 4.5, "createdAt": 1700000000000}
				}
			}
		}
	}`))
	require.NoError(t, err)

	out := overviewText("alice", doc)
	assert.Contains(t, out, "Active Listings: 1")
	assert.Contains(t, out, "LISTING")
	assert.Contains(t, out, "Milk")
	assert.Contains(t, out, "4.5 SFL")
	assert.Contains(t, out, "listing-")
	assert.NotContains(t, out, "listing-abcdefgh")

	// Long item names shorten on character boundaries.
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "Ñandú Feather D")
	assert.NotContains(t, out, "Ñandú Feather De")
}

func TestRowLineColumns(t *testing.T) {
	line := rowLine(trades.Row{
		Date: "2025-01-02", Time: "09:00 AM", Direction: trades.Sell,
		Item: "Milk", Quantity: 2, Price: "5 SFL", Counterparty: "bob", TradeID: "abc",
	})
	cols := strings.Split(line, " | ")
	require.Len(t, cols, 8)
	assert.Equal(t, "abc", cols[7]) // short IDs pass through unchanged
}
