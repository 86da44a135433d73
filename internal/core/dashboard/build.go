// Package dashboard aggregates persisted snapshots and ledgers into the
// JSON document the static web dashboard renders. It reads only
// persisted artifacts and never touches the upstream API.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dmaher/sfl-tracker/internal/core/ledger"
	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
	"github.com/shopspring/decimal"
)

type TradeEntry struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	Type         string `json:"type"`
	Item         string `json:"item"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	Counterparty string `json:"counterparty"`
	TradeID      string `json:"tradeId"`
}

type Player struct {
	Username       string       `json:"username"`
	Balance        float64      `json:"balance"`
	Coins          int64        `json:"coins"`
	Gems           int64        `json:"gems"`
	SFLEarned      float64      `json:"sflEarned"`
	SFLSpent       float64      `json:"sflSpent"`
	SoldCount      int          `json:"soldCount"`
	TradePoints    float64      `json:"tradePoints"`
	ActiveListings int          `json:"activeListings"`
	BuyCount       int          `json:"buyCount"`
	SellCount      int          `json:"sellCount"`
	BoughtSFL      string       `json:"boughtSfl"`
	SoldSFL        string       `json:"soldSfl"`
	RecentTrades   []TradeEntry `json:"recentTrades"`
}

type Data struct {
	GeneratedAt string   `json:"generatedAt"`
	PlayerCount int      `json:"playerCount"`
	TotalTrades int      `json:"totalTrades"`
	Players     []Player `json:"players"`
}

const recentTradeLimit = 10

// Build assembles dashboard data for every player that has either a
// farm snapshot or ledger history. Players missing one side still
// appear with the fields that are available.
func Build(snaps *snapshot.Store, ledgers *ledger.Store) (*Data, error) {
	names := map[string]struct{}{}
	for _, n := range snaps.FarmUsernames() {
		names[n] = struct{}{}
	}
	ledgerNames, err := ledgers.Usernames()
	if err != nil {
		telemetry.Warnf("dashboard: list ledger players: %v", err)
	}
	for _, n := range ledgerNames {
		names[n] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	data := &Data{GeneratedAt: time.Now().Format(time.RFC3339)}
	for _, username := range sorted {
		p := buildPlayer(username, snaps, ledgers)
		data.TotalTrades += p.BuyCount + p.SellCount
		data.Players = append(data.Players, p)
	}
	data.PlayerCount = len(data.Players)
	return data, nil
}

func buildPlayer(username string, snaps *snapshot.Store, ledgers *ledger.Store) Player {
	p := Player{Username: username}

	if doc := snaps.LoadFarm(username); doc != nil {
		p.Balance, _ = doc.Farm.Balance.Float64()
		p.Coins, _ = doc.Farm.Coins.Int64()
		p.Gems, _ = doc.Farm.Gems.Int64()
		p.SFLEarned = doc.Farm.Activity("SFL Earned")
		p.SFLSpent = doc.Farm.Activity("SFL Spent")
		p.SoldCount = doc.Farm.Trades.SoldCount
		p.TradePoints = doc.Farm.Trades.TradePoints
		p.ActiveListings = len(doc.Farm.Trades.Listings)
	}

	buys, sells := ledgers.Load(username)
	p.BuyCount = len(buys)
	p.SellCount = len(sells)
	p.BoughtSFL = sumPrices(buys).String()
	p.SoldSFL = sumPrices(sells).String()
	p.RecentTrades = recentTrades(buys, sells)
	return p
}

// sumPrices totals the formatted "<amount> SFL" prices; rows that fail
// to parse contribute nothing.
func sumPrices(rows []trades.Row) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		amount, err := decimal.NewFromString(strings.TrimSuffix(r.Price, " SFL"))
		if err != nil {
			continue
		}
		total = total.Add(amount)
	}
	return total
}

// recentTrades interleaves buys and sells newest-first. Both inputs are
// already sorted, so a simple merge suffices.
func recentTrades(buys, sells []trades.Row) []TradeEntry {
	merged := make([]trades.Row, 0, len(buys)+len(sells))
	merged = append(merged, buys...)
	merged = append(merged, sells...)
	sort.SliceStable(merged, func(i, j int) bool {
		ti, _ := merged[i].FulfilledTime()
		tj, _ := merged[j].FulfilledTime()
		return ti.After(tj)
	})
	if len(merged) > recentTradeLimit {
		merged = merged[:recentTradeLimit]
	}

	entries := make([]TradeEntry, 0, len(merged))
	for _, r := range merged {
		entries = append(entries, TradeEntry{
			Date:         r.Date,
			Time:         r.Time,
			Type:         string(r.Direction),
			Item:         r.Item,
			Quantity:     r.Quantity,
			Price:        r.Price,
			Counterparty: r.Counterparty,
			TradeID:      r.TradeID,
		})
	}
	return entries
}

// Write persists the dashboard document as indented JSON.
func Write(path string, data *Data) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dashboard data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write dashboard data: %w", err)
	}
	return nil
}
