package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmaher/sfl-tracker/internal/adapters/outbound/sfl_http"
	"github.com/dmaher/sfl-tracker/internal/core/ledger"
	"github.com/dmaher/sfl-tracker/internal/core/pacing"
	"github.com/dmaher/sfl-tracker/internal/core/render"
	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeFarmJSON = `{
  "id": 12345,
  "nft_id": 1128976301583508,
  "farm": {
    "username": "Alice",
    "balance": "42.5",
    "coins": 1200,
    "gems": 30,
    "trades": {"soldCount": 1, "tradePoints": 2}
  }
}`

const fakeMarketJSON = `{
  "trades": [
    {"id": "t1", "fulfilledAt": 1700000000000, "itemId": 101, "collection": "collectibles",
     "quantity": 2, "sfl": 5, "initiatedBy": {"id": "1", "username": "alice"},
     "fulfilledBy": {"id": "9", "username": "bob"}}
  ]
}`

// fakeFetcher serves canned payloads keyed by farm ID and records which
// IDs were requested.
type fakeFetcher struct {
	farms   map[string]string
	markets map[string]string
	farmErr map[string]error
	mktErr  map[string]error

	farmCalls []string
	mktCalls  []string
}

func (f *fakeFetcher) FetchFarm(_ context.Context, farmID string) ([]byte, error) {
	f.farmCalls = append(f.farmCalls, farmID)
	if err, ok := f.farmErr[farmID]; ok {
		return nil, err
	}
	return []byte(f.farms[farmID]), nil
}

func (f *fakeFetcher) FetchMarketplace(_ context.Context, farmID string) ([]byte, error) {
	f.mktCalls = append(f.mktCalls, farmID)
	if err, ok := f.mktErr[farmID]; ok {
		return nil, err
	}
	return []byte(f.markets[farmID]), nil
}

type pipelineFixture struct {
	pipeline *Pipeline
	fetcher  *fakeFetcher
	ledgers  *ledger.Store
	snaps    *snapshot.Store
	dataDir  string
}

func newFixture(t *testing.T, fetcher *fakeFetcher) *pipelineFixture {
	t.Helper()
	dataDir := t.TempDir()

	snaps, err := snapshot.NewStore(dataDir)
	require.NoError(t, err)
	ledgers, err := ledger.OpenStore(filepath.Join(dataDir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledgers.Close() })
	writer, err := render.NewWriter(dataDir)
	require.NoError(t, err)
	idmap := snapshot.LoadIDMap(filepath.Join(dataDir, "farm_id_mapping.json"))
	pacer := pacing.NewController(31, 15, 60, nil)

	p := New(fetcher, pacer, snaps, ledgers, writer, idmap, trades.ItemMapping{101: "Milk"})
	p.betweenCalls = 0
	p.sleep = func(time.Duration) {}

	return &pipelineFixture{pipeline: p, fetcher: fetcher, ledgers: ledgers, snaps: snaps, dataDir: dataDir}
}

func TestPipelineFullRun(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{
		farms:   map[string]string{"1128976301583508": fakeFarmJSON},
		markets: map[string]string{"1128976301583508": fakeMarketJSON},
	})

	summary := fx.pipeline.Run(context.Background(), []string{"1128976301583508"})

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Done)
	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, 1, res.NewTrades)

	buys, sells := fx.ledgers.Load("alice")
	assert.Empty(t, buys)
	require.Len(t, sells, 1)
	assert.Equal(t, "t1", sells[0].TradeID)
	assert.Equal(t, "Milk", sells[0].Item)

	// Snapshots and rendered artifacts landed on disk.
	assert.NotNil(t, fx.snaps.LoadFarm("alice"))
	assert.NotNil(t, fx.snaps.LoadMarketplace("alice"))
	for _, name := range []string{"overview.txt", "buys.txt", "sells.txt"} {
		_, err := os.Stat(filepath.Join(fx.dataDir, "trade_overview", "alice", name))
		assert.NoError(t, err, name)
	}
}

func TestPipelineSecondRunIsIdempotent(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{
		farms:   map[string]string{"1128976301583508": fakeFarmJSON},
		markets: map[string]string{"1128976301583508": fakeMarketJSON},
	})

	first := fx.pipeline.Run(context.Background(), []string{"1128976301583508"})
	require.Equal(t, 1, first.Results[0].NewTrades)

	second := fx.pipeline.Run(context.Background(), []string{"1128976301583508"})
	assert.Equal(t, StateDone, second.Results[0].State)
	assert.Equal(t, 0, second.Results[0].NewTrades)

	_, sells := fx.ledgers.Load("alice")
	assert.Len(t, sells, 1)
}

func TestPipelineFarmFailureSkipsPlayer(t *testing.T) {
	wantErr := errors.New("farm gone")
	fx := newFixture(t, &fakeFetcher{
		farmErr: map[string]error{"7": wantErr},
	})

	summary := fx.pipeline.Run(context.Background(), []string{"7"})

	assert.Equal(t, 1, summary.Skipped)
	res := summary.Results[0]
	assert.Equal(t, StateSkipped, res.State)
	assert.ErrorIs(t, res.Err, wantErr)
	// The marketplace is never consulted for a skipped player.
	assert.Empty(t, fx.fetcher.mktCalls)
}

func TestPipelineMarketplaceFailureIsPartial(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{
		farms:  map[string]string{"1128976301583508": fakeFarmJSON},
		mktErr: map[string]error{"1128976301583508": sfl_http.ErrRateLimited},
	})

	summary := fx.pipeline.Run(context.Background(), []string{"1128976301583508"})

	assert.Equal(t, 1, summary.Partial)
	res := summary.Results[0]
	assert.Equal(t, StatePartial, res.State)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, 1, summary.RateLimitedCount())

	// The farm snapshot still landed even though the ledger is unchanged.
	assert.NotNil(t, fx.snaps.LoadFarm("alice"))
	buys, sells := fx.ledgers.Load("alice")
	assert.Empty(t, buys)
	assert.Empty(t, sells)
}

func TestPipelineResolvesShortIDs(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{
		farms:   map[string]string{"1128976301583508": fakeFarmJSON},
		markets: map[string]string{"1128976301583508": fakeMarketJSON},
	})

	// Seed the mapping the way a prior run would: a snapshot on disk that
	// pairs the short ID with the long one.
	require.NoError(t, fx.snaps.SaveFarm("alice", []byte(fakeFarmJSON)))

	summary := fx.pipeline.Run(context.Background(), []string{"12345"})

	assert.Equal(t, 1, summary.Done)
	assert.Equal(t, []string{"1128976301583508"}, fx.fetcher.farmCalls)
}

func TestPipelineContinuesAfterFailure(t *testing.T) {
	fx := newFixture(t, &fakeFetcher{
		farms:   map[string]string{"1128976301583508": fakeFarmJSON},
		markets: map[string]string{"1128976301583508": fakeMarketJSON},
		farmErr: map[string]error{"7": sfl_http.ErrUnavailable},
	})

	summary := fx.pipeline.Run(context.Background(), []string{"7", "1128976301583508"})

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Done)
}
