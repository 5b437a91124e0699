// Package launchermap maintains the mapping between the front-end's internal
// edition ids and on-chain launcher ids. The map lives in a flat JSON file
// (`{"map": {"<internal>": "<launcher>"}}`) checked into the site's data
// directory; the aggregator loads it read-only once per run.
package launchermap

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Map is the loaded internal⇄launcher bijection. Read-only after load.
type Map struct {
	byInternal map[string]string
	byLauncher map[string]string
}

type mapFile struct {
	Map map[string]string `json:"map"`
}

// Load reads and validates the map file. A missing or malformed file is a
// hard input error: the aggregator must refuse to run rather than produce an
// unmapped snapshot.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("launcher map: %w", err)
	}

	var f mapFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("launcher map %s: %w", path, err)
	}
	if len(f.Map) == 0 {
		return nil, fmt.Errorf("launcher map %s: empty or missing \"map\" key", path)
	}

	m := &Map{
		byInternal: make(map[string]string, len(f.Map)),
		byLauncher: make(map[string]string, len(f.Map)),
	}
	for internal, launcher := range f.Map {
		launcher = normalizeLauncher(launcher)
		if internal == "" || launcher == "" {
			continue
		}
		m.byInternal[internal] = launcher
		m.byLauncher[launcher] = internal
	}
	if len(m.byLauncher) == 0 {
		return nil, fmt.Errorf("launcher map %s: no usable entries", path)
	}
	return m, nil
}

// Launcher returns the launcher id for an internal id.
func (m *Map) Launcher(internalID string) (string, bool) {
	l, ok := m.byInternal[internalID]
	return l, ok
}

// Internal returns the internal id for a launcher id. Satisfies
// market.Resolver.
func (m *Map) Internal(launcherID string) (string, bool) {
	id, ok := m.byLauncher[normalizeLauncher(launcherID)]
	return id, ok
}

// Len returns the number of mapped pairs.
func (m *Map) Len() int { return len(m.byLauncher) }

// Save writes the map back out in the flat JSON file format, with internal
// ids sorted numerically for stable diffs.
func Save(path string, pairs map[string]string) error {
	ordered := orderedPairs(pairs)
	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// orderedPairs wraps the pairs so MarshalJSON can emit numerically sorted keys.
type orderedPairs map[string]string

func (p orderedPairs) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sortNumeric(keys)

	var b strings.Builder
	b.WriteString(`{"map":{`)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(p[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteString("}}")
	return []byte(b.String()), nil
}

// sortNumeric sorts ids numerically where possible, lexically otherwise.
func sortNumeric(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		na, errA := strconv.Atoi(keys[i])
		nb, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}

func normalizeLauncher(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
}
