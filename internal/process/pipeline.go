// Package process drives the per-player pipeline: FETCH -> NORMALIZE ->
// RECONCILE -> PERSIST, sequentially, one player at a time. The upstream
// rate limit is global, so there is deliberately no concurrency here;
// all waiting is a blocking sleep governed by the pacing controller.
package process

import (
	"context"
	"errors"
	"time"

	"github.com/dmaher/sfl-tracker/internal/adapters/outbound/sfl_http"
	"github.com/dmaher/sfl-tracker/internal/core/ledger"
	"github.com/dmaher/sfl-tracker/internal/core/pacing"
	"github.com/dmaher/sfl-tracker/internal/core/render"
	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
	"github.com/google/uuid"
)

// Fetcher is the slice of the HTTP client the pipeline needs; tests
// substitute a canned implementation.
type Fetcher interface {
	FetchFarm(ctx context.Context, farmID string) ([]byte, error)
	FetchMarketplace(ctx context.Context, farmID string) ([]byte, error)
}

type State string

const (
	// StateDone: both resources fetched, ledger reconciled and persisted.
	StateDone State = "DONE"
	// StatePartial: farm snapshot persisted but the trade feed was not
	// available, so the ledger is unchanged this run.
	StatePartial State = "PARTIAL"
	// StateSkipped: the farm fetch failed; nothing was persisted.
	StateSkipped State = "SKIPPED"
)

type PlayerResult struct {
	FarmID    string
	Username  string
	State     State
	NewTrades int
	Err       error
}

type Summary struct {
	RunID     string
	Processed int
	Done      int
	Partial   int
	Skipped   int
	Results   []PlayerResult
}

type Pipeline struct {
	fetcher Fetcher
	pacer   *pacing.Controller
	snaps   *snapshot.Store
	ledgers *ledger.Store
	writer  *render.Writer
	idmap   *snapshot.IDMap
	items   trades.ItemMapping

	// betweenCalls separates the farm and marketplace requests for one
	// player; the pacing controller only governs the gap between players.
	betweenCalls time.Duration
	sleep        func(time.Duration)
}

func New(fetcher Fetcher, pacer *pacing.Controller, snaps *snapshot.Store, ledgers *ledger.Store,
	writer *render.Writer, idmap *snapshot.IDMap, items trades.ItemMapping) *Pipeline {
	return &Pipeline{
		fetcher:      fetcher,
		pacer:        pacer,
		snaps:        snaps,
		ledgers:      ledgers,
		writer:       writer,
		idmap:        idmap,
		items:        items,
		betweenCalls: time.Second,
		sleep:        time.Sleep,
	}
}

// Run processes every farm ID in order. No per-player failure aborts
// the batch; each outcome lands in the summary.
func (p *Pipeline) Run(ctx context.Context, farmIDs []string) Summary {
	summary := Summary{RunID: uuid.NewString()}
	telemetry.Infof("pipeline: run %s starting, %d players, wait %.1fs",
		summary.RunID, len(farmIDs), p.pacer.Wait())

	// Opportunistic: previously fetched snapshots may already resolve
	// short roster IDs.
	p.idmap.ScanFarms(p.snaps)

	for i, farmID := range farmIDs {
		start := time.Now()
		res := p.processPlayer(ctx, p.idmap.Resolve(farmID))
		elapsed := time.Since(start).Seconds()

		summary.Processed++
		summary.Results = append(summary.Results, res)
		switch res.State {
		case StateDone:
			summary.Done++
		case StatePartial:
			summary.Partial++
		case StateSkipped:
			summary.Skipped++
			telemetry.Warnf("pipeline: skipping farm %s: %v", res.FarmID, res.Err)
		}

		wait := p.pacer.Observe(elapsed, res.State == StateSkipped)
		if i < len(farmIDs)-1 {
			telemetry.Debugf("pipeline: waiting %.1fs before next player (last request %.1fs)", wait, elapsed)
			p.sleep(time.Duration(wait * float64(time.Second)))
		}
	}

	telemetry.Infof("pipeline: run %s complete  done=%d partial=%d skipped=%d wait=%.1fs",
		summary.RunID, summary.Done, summary.Partial, summary.Skipped, p.pacer.Wait())
	return summary
}

func (p *Pipeline) processPlayer(ctx context.Context, farmID string) PlayerResult {
	res := PlayerResult{FarmID: farmID, State: StateSkipped}

	// FETCH: the farm snapshot anchors the run; without it there is no
	// username and nothing to key persisted artifacts by.
	rawFarm, err := p.fetcher.FetchFarm(ctx, farmID)
	if err != nil {
		res.Err = err
		return res
	}

	doc, err := snapshot.ParseFarm(rawFarm)
	if err != nil {
		res.Err = err
		return res
	}
	username := doc.Username()
	if username == "" {
		res.Err = errors.New("no username in farm snapshot")
		return res
	}
	res.Username = username
	p.idmap.Record(doc.ID.String(), doc.NFTID.String())

	// PERSIST the raw farm snapshot before anything can go wrong with
	// the marketplace side.
	if err := p.snaps.SaveFarm(username, rawFarm); err != nil {
		telemetry.Warnf("pipeline: save farm snapshot for %s: %v", username, err)
	}

	p.sleep(p.betweenCalls)

	rawMkt, err := p.fetcher.FetchMarketplace(ctx, farmID)
	if err != nil {
		// Farm data landed, the ledger just stays as-is this run.
		telemetry.Warnf("pipeline: marketplace fetch for %s: %v", username, err)
		existingBuys, existingSells := p.ledgers.Load(username)
		if werr := p.writer.WritePlayer(username, doc, existingBuys, existingSells); werr != nil {
			telemetry.Warnf("pipeline: render artifacts for %s: %v", username, werr)
		}
		res.State = StatePartial
		res.Err = err
		return res
	}

	mkt, err := snapshot.ParseMarketplace(rawMkt)
	if err != nil {
		telemetry.Warnf("pipeline: parse marketplace for %s: %v", username, err)
		res.State = StatePartial
		res.Err = err
		return res
	}
	if err := p.snaps.SaveMarketplace(username, rawMkt); err != nil {
		telemetry.Warnf("pipeline: save marketplace snapshot for %s: %v", username, err)
	}

	// NORMALIZE + RECONCILE against the persisted ledger, then PERSIST
	// the merged result. The rewrite is safe because the merge folds in
	// every previously persisted row.
	existingBuys, existingSells := p.ledgers.Load(username)
	buys, sells := ledger.Reconcile(mkt.Trades, existingBuys, existingSells, username, p.items)
	res.NewTrades = (len(buys) + len(sells)) - (len(existingBuys) + len(existingSells))

	if err := p.ledgers.Replace(username, buys, sells); err != nil {
		telemetry.Errorf("pipeline: persist ledger for %s: %v", username, err)
		res.State = StatePartial
		res.Err = err
		return res
	}

	if err := p.writer.WritePlayer(username, doc, buys, sells); err != nil {
		telemetry.Warnf("pipeline: render artifacts for %s: %v", username, err)
	}

	if res.NewTrades > 0 {
		telemetry.Infof("pipeline: %s: %d new trades (%d buys, %d sells total)",
			username, res.NewTrades, len(buys), len(sells))
	}
	res.State = StateDone
	return res
}

// RateLimitedCount reports how many players were skipped because the
// retry budget was exhausted under 429s; the caller surfaces it so an
// operator can tell pacing trouble from upstream flakiness.
func (s Summary) RateLimitedCount() int {
	var n int
	for _, r := range s.Results {
		if r.Err != nil && errors.Is(r.Err, sfl_http.ErrRateLimited) {
			n++
		}
	}
	return n
}
