// Package ledger maintains the per-player, append-only trade ledger:
// deduplicated by trade ID, split into buy and sell sub-ledgers, ordered
// newest-first. Each reconciliation pass re-derives the full ledger from
// the freshly fetched trades plus everything previously persisted, so
// the caller can safely rewrite the stored ledger with the result.
package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

// Reconcile merges newly fetched trades with the previously persisted
// buy/sell rows for the subject player.
//
// New trades are normalized and partitioned by direction, then each
// direction is merged independently: new rows are admitted first, then
// existing rows, and a trade ID is admitted at most once. Because new
// rows are considered first, a refetched trade always wins its canonical
// form over the stale persisted copy. The merged sequences are sorted
// newest-first; rows with unparseable timestamps sink to the oldest end.
//
// Malformed trade records are skipped with a warning and never abort the
// batch. Reconciling the same trades against the previous output is a
// no-op: every ID is already admitted.
func Reconcile(newTrades []trades.Trade, existingBuys, existingSells []trades.Row, subject string, items trades.ItemMapping) (buys, sells []trades.Row) {
	var newBuys, newSells []trades.Row
	for _, t := range newTrades {
		row, err := trades.Normalize(t, subject, items)
		if err != nil {
			if errors.Is(err, trades.ErrMalformed) {
				telemetry.Warnf("ledger: dropping malformed trade for %s: %v", subject, err)
				continue
			}
			telemetry.Warnf("ledger: dropping trade %q for %s: %v", t.ID, subject, err)
			continue
		}
		if row.Direction == trades.Sell {
			newSells = append(newSells, row)
		} else {
			newBuys = append(newBuys, row)
		}
	}

	// The seen set spans both directions: a trade ID appears at most
	// once across the combined buy+sell ledger, even when a stale
	// persisted row classified it differently than the fresh fetch.
	// All new rows claim their IDs before any existing row is
	// considered, so new data always wins the canonical form.
	seen := make(map[string]struct{}, len(newTrades)+len(existingBuys)+len(existingSells))
	admit := func(dst *[]trades.Row, rows []trades.Row) {
		for _, r := range rows {
			if r.TradeID == "" {
				continue
			}
			if _, ok := seen[r.TradeID]; ok {
				continue
			}
			seen[r.TradeID] = struct{}{}
			*dst = append(*dst, r)
		}
	}
	admit(&buys, newBuys)
	admit(&sells, newSells)
	admit(&buys, existingBuys)
	admit(&sells, existingSells)

	sortNewestFirst(buys)
	sortNewestFirst(sells)
	return buys, sells
}

func sortNewestFirst(rows []trades.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i]).After(sortKey(rows[j]))
	})
}

func sortKey(r trades.Row) time.Time {
	ts, ok := r.FulfilledTime()
	if !ok {
		return time.Time{}
	}
	return ts
}
