package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmaher/sfl-tracker/internal/adapters/outbound/sfl_http"
	"github.com/dmaher/sfl-tracker/internal/config"
	"github.com/dmaher/sfl-tracker/internal/core/ledger"
	"github.com/dmaher/sfl-tracker/internal/core/pacing"
	"github.com/dmaher/sfl-tracker/internal/core/render"
	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/dmaher/sfl-tracker/internal/process"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting tracker")

	if cfg.APIKey == "" || cfg.BearerToken == "" {
		telemetry.Errorf("Missing credentials: set SFL_API_KEY and SFL_BEARER_TOKEN in .env")
		os.Exit(1)
	}

	limits, err := config.LoadPacingLimits(cfg.PacingPath)
	if err != nil {
		telemetry.Errorf("Failed to load pacing limits: %v", err)
		os.Exit(1)
	}

	roster, err := pacing.LoadRoster(cfg.RosterPath, limits.Wait.DefaultSec)
	if err != nil {
		telemetry.Errorf("Failed to load roster: %v", err)
		os.Exit(1)
	}
	if len(roster.FarmIDs) == 0 {
		telemetry.Errorf("Roster %s has no farm IDs to process", cfg.RosterPath)
		os.Exit(1)
	}

	items, err := trades.LoadItemMapping(cfg.ItemMapPath)
	if err != nil {
		telemetry.Warnf("Item mapping unavailable: %v (falling back to item IDs)", err)
		items = trades.ItemMapping{}
	}
	telemetry.Infof("Loaded %d item name mappings", len(items))

	snaps, err := snapshot.NewStore(cfg.DataDir)
	if err != nil {
		telemetry.Errorf("Snapshot store: %v", err)
		os.Exit(1)
	}

	ledgers, err := ledger.OpenStore(cfg.LedgerDBPath)
	if err != nil {
		telemetry.Errorf("Ledger store: %v", err)
		os.Exit(1)
	}
	defer ledgers.Close()

	writer, err := render.NewWriter(cfg.DataDir)
	if err != nil {
		telemetry.Errorf("Overview writer: %v", err)
		os.Exit(1)
	}

	idmap := snapshot.LoadIDMap(cfg.IDMapCachePath)

	client := sfl_http.NewClient(cfg, limits.Retry)
	pacer := pacing.NewController(roster.Wait, limits.Wait.FloorSec, limits.Wait.CeilingSec, roster)
	pipeline := process.New(client, pacer, snaps, ledgers, writer, idmap, items)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := pipeline.Run(ctx, roster.FarmIDs)

	telemetry.Plainf("")
	telemetry.Plainf("RUN SUMMARY  %s", summary.RunID)
	telemetry.Plainf("  players:       %d", summary.Processed)
	telemetry.Plainf("  done:          %d", summary.Done)
	telemetry.Plainf("  partial:       %d", summary.Partial)
	telemetry.Plainf("  skipped:       %d", summary.Skipped)
	telemetry.Plainf("  rate limited:  %d", summary.RateLimitedCount())
	telemetry.Plainf("  avg request:   %s", client.Latency.Average())
	telemetry.Plainf("  final wait:    %.1fs", pacer.Wait())

	if summary.Done == 0 && summary.Partial == 0 {
		os.Exit(1)
	}
}
