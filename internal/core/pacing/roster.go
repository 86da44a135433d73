package pacing

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

const waitPrefix = "WAIT_TIME_SECONDS="

// Roster is the persisted polling state: the adaptive wait on the first
// line and the ordered upstream farm IDs on the rest. Keeping them in
// one file means a restart resumes with the last learned pacing.
type Roster struct {
	path    string
	Wait    float64
	FarmIDs []string
}

// LoadRoster reads the roster file. A missing wait line falls back to
// the supplied default so legacy ID-only files keep working.
func LoadRoster(path string, defaultWait float64) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	r := &Roster{path: path, Wait: defaultWait}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, waitPrefix) {
			w, err := strconv.ParseFloat(strings.TrimPrefix(line, waitPrefix), 64)
			if err != nil {
				telemetry.Warnf("roster: unparseable wait %q, using %.1fs", line, defaultWait)
				continue
			}
			r.Wait = w
			continue
		}
		r.FarmIDs = append(r.FarmIDs, line)
	}

	telemetry.Infof("roster: loaded %d farm IDs, wait %.1fs", len(r.FarmIDs), r.Wait)
	return r, nil
}

// SaveWait rewrites the roster with the new wait on the first line,
// preserving the farm ID order. Implements WaitStore.
func (r *Roster) SaveWait(seconds float64) error {
	r.Wait = seconds

	var b strings.Builder
	fmt.Fprintf(&b, "%s%.1f\n", waitPrefix, seconds)
	for _, id := range r.FarmIDs {
		b.WriteString(id)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}
