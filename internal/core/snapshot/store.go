package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

// Store reads and writes the raw per-player JSON snapshots. Writes are
// whole-file replace; there is exactly one writer per username, so no
// locking is needed.
type Store struct {
	farmsDir  string
	marketDir string
}

func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		farmsDir:  filepath.Join(dataDir, "farms"),
		marketDir: filepath.Join(dataDir, "marketplace"),
	}
	for _, dir := range []string{s.farmsDir, s.marketDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return s, nil
}

// SaveFarm persists the raw farm snapshot for a player, re-indented for
// the humans who grep these files.
func (s *Store) SaveFarm(username string, raw []byte) error {
	return writeJSON(filepath.Join(s.farmsDir, username+".json"), raw)
}

// SaveMarketplace persists the raw marketplace profile for a player.
func (s *Store) SaveMarketplace(username string, raw []byte) error {
	return writeJSON(filepath.Join(s.marketDir, username+".json"), raw)
}

// LoadFarm returns a player's last persisted farm snapshot, or nil when
// none exists or it fails to parse.
func (s *Store) LoadFarm(username string) *Document {
	raw, err := os.ReadFile(filepath.Join(s.farmsDir, username+".json"))
	if err != nil {
		return nil
	}
	doc, err := ParseFarm(raw)
	if err != nil {
		telemetry.Warnf("snapshot: corrupt farm snapshot for %s: %v (ignoring)", username, err)
		return nil
	}
	return doc
}

// LoadMarketplace returns a player's last persisted marketplace doc, or
// nil when none exists or it fails to parse.
func (s *Store) LoadMarketplace(username string) *MarketplaceDoc {
	raw, err := os.ReadFile(filepath.Join(s.marketDir, username+".json"))
	if err != nil {
		return nil
	}
	doc, err := ParseMarketplace(raw)
	if err != nil {
		telemetry.Warnf("snapshot: corrupt marketplace snapshot for %s: %v (ignoring)", username, err)
		return nil
	}
	return doc
}

// FarmUsernames lists every player with a persisted farm snapshot.
func (s *Store) FarmUsernames() []string {
	entries, err := os.ReadDir(s.farmsDir)
	if err != nil {
		telemetry.Warnf("snapshot: list farm snapshots: %v", err)
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names
}

func writeJSON(path string, raw []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		// Persist as-is when the payload is not valid JSON; the read
		// side treats it as no prior state.
		pretty.Reset()
		pretty.Write(raw)
	}
	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
