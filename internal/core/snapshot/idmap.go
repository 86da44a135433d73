package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

// IDMap caches the short farm ID to canonical long (NFT) ID mapping.
// Entries are append-only: the upstream has never been observed to
// reassign an ID, so mappings are treated as permanent.
type IDMap struct {
	path string
	m    map[string]string
}

// LoadIDMap reads the persisted cache. Missing or corrupt files start
// an empty map with a warning.
func LoadIDMap(path string) *IDMap {
	im := &IDMap{path: path, m: map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return im
	}
	if err != nil {
		telemetry.Warnf("idmap: read %s: %v (starting empty)", path, err)
		return im
	}
	if err := json.Unmarshal(raw, &im.m); err != nil {
		telemetry.Warnf("idmap: corrupt %s: %v (starting empty)", path, err)
		im.m = map[string]string{}
	}
	return im
}

// Resolve returns the canonical long ID for a known short or long ID.
// Unknown IDs resolve to themselves so roster entries that already hold
// the long form pass through untouched.
func (im *IDMap) Resolve(id string) string {
	if long, ok := im.m[id]; ok {
		return long
	}
	return id
}

func (im *IDMap) Len() int { return len(im.m) }

// Record adds a short->long pair and persists immediately when the
// entry is new.
func (im *IDMap) Record(short, long string) {
	if short == "" || long == "" || short == long {
		return
	}
	if existing, ok := im.m[short]; ok && existing == long {
		return
	}
	im.m[short] = long
	if err := im.save(); err != nil {
		telemetry.Warnf("idmap: persist: %v", err)
	}
}

// ScanFarms builds mappings opportunistically from previously fetched
// farm snapshots, so a roster of short IDs becomes resolvable without
// extra upstream lookups.
func (im *IDMap) ScanFarms(store *Store) {
	for _, username := range store.FarmUsernames() {
		doc := store.LoadFarm(username)
		if doc == nil {
			continue
		}
		im.Record(doc.ID.String(), doc.NFTID.String())
	}
	telemetry.Debugf("idmap: %d mappings after snapshot scan", im.Len())
}

func (im *IDMap) save() error {
	data, err := json.MarshalIndent(im.m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal id map: %w", err)
	}
	if err := os.WriteFile(im.path, data, 0o644); err != nil {
		return fmt.Errorf("write id map: %w", err)
	}
	return nil
}
