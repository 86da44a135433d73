package main

import (
	"os"
	"path/filepath"

	"github.com/dmaher/sfl-tracker/internal/config"
	"github.com/dmaher/sfl-tracker/internal/core/dashboard"
	"github.com/dmaher/sfl-tracker/internal/core/ledger"
	"github.com/dmaher/sfl-tracker/internal/core/snapshot"
	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

// Regenerates dashboard_data.json from the persisted snapshots and
// ledgers. Safe to run any time; it never touches the upstream API.
func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

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

	data, err := dashboard.Build(snaps, ledgers)
	if err != nil {
		telemetry.Errorf("Build dashboard data: %v", err)
		os.Exit(1)
	}

	outPath := filepath.Join(cfg.DataDir, "dashboard_data.json")
	if err := dashboard.Write(outPath, data); err != nil {
		telemetry.Errorf("Write dashboard data: %v", err)
		os.Exit(1)
	}

	telemetry.Infof("Dashboard data written to %s (%d players, %d trades)",
		outPath, data.PlayerCount, data.TotalTrades)
}
