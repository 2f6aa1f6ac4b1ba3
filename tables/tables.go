// Package tables holds the static, read-only lookup tables of the
// generator: the machine current-mode map and the empirical crater
// statistics. Both are loaded once at initialization into an immutable
// structure that is shared by reference across episodes.
package tables

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/edmlab/wedm-sim/types"
)

// CurrentMode maps a discrete machine setting to a machine current.
type CurrentMode struct {
	Mode    int     `json:"mode"`
	Current float64 `json:"current"` // [A]
}

// CraterStats is one row of the empirical crater table, keyed by the
// current of the characterization experiment.
type CraterStats struct {
	Current    float64 `json:"current"`     // [A]
	MeanArea   float64 `json:"mean_area"`   // [µm²]
	StdArea    float64 `json:"std_area"`    // [µm²]
	MeanDepth  float64 `json:"mean_depth"`  // [µm]
	MeanVolume float64 `json:"mean_volume"` // [µm³]
	StdVolume  float64 `json:"std_volume"`  // [µm³]
}

type currentsFile struct {
	Modes []CurrentMode `json:"modes"`
}

type cratersFile struct {
	Craters []CraterStats `json:"craters"`
}

// Tables is the immutable pair of lookup tables.
type Tables struct {
	modes      map[int]float64
	minCurrent float64
	maxCurrent float64
	craters    []CraterStats
}

// New builds and validates the tables from in-memory rows.
func New(modes []CurrentMode, craters []CraterStats) (*Tables, error) {
	if len(modes) == 0 {
		return nil, types.ConfigErrorf("current-mode table is empty")
	}
	if len(craters) == 0 {
		return nil, types.ConfigErrorf("crater table is empty")
	}

	t := &Tables{
		modes:      make(map[int]float64, len(modes)),
		minCurrent: math.Inf(1),
		maxCurrent: math.Inf(-1),
		craters:    make([]CraterStats, len(craters)),
	}
	for _, m := range modes {
		if m.Current <= 0 {
			return nil, types.ConfigErrorf("mode %d has non-positive current %.3f", m.Mode, m.Current)
		}
		if _, ok := t.modes[m.Mode]; ok {
			return nil, types.ConfigErrorf("duplicate current mode %d", m.Mode)
		}
		t.modes[m.Mode] = m.Current
		t.minCurrent = math.Min(t.minCurrent, m.Current)
		t.maxCurrent = math.Max(t.maxCurrent, m.Current)
	}

	copy(t.craters, craters)
	sort.Slice(t.craters, func(i, j int) bool { return t.craters[i].Current < t.craters[j].Current })
	for i, c := range t.craters {
		if c.Current <= 0 {
			return nil, types.ConfigErrorf("crater row %d has non-positive current %.3f", i, c.Current)
		}
		if i > 0 && c.Current == t.craters[i-1].Current {
			return nil, types.ConfigErrorf("duplicate crater current %.3f", c.Current)
		}
		if c.StdVolume < 0 || c.StdArea < 0 {
			return nil, types.ConfigErrorf("crater row for %.1f A has negative deviation", c.Current)
		}
		if c.MeanVolume <= 0 || c.MeanDepth <= 0 {
			return nil, types.ConfigErrorf("crater row for %.1f A has non-positive moments", c.Current)
		}
	}
	return t, nil
}

// Load reads and validates the two table files. Called once at
// initialization; the result is shared read-only.
func Load(currentsPath, cratersPath string) (*Tables, error) {
	var cf currentsFile
	if err := readJSON(currentsPath, &cf); err != nil {
		return nil, err
	}
	var kf cratersFile
	if err := readJSON(cratersPath, &kf); err != nil {
		return nil, err
	}
	return New(cf.Modes, kf.Craters)
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", types.ErrConfig, path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", types.ErrConfig, path, err)
	}
	return nil
}

// MachineCurrent resolves a discrete mode code to a machine current,
// failing fast on unknown modes.
func (t *Tables) MachineCurrent(mode int) (float64, error) {
	current, ok := t.modes[mode]
	if !ok {
		return 0, types.ConfigErrorf("unknown current mode %d", mode)
	}
	return current, nil
}

// HasMode reports whether the mode code exists in the machine table.
func (t *Tables) HasMode(mode int) bool {
	_, ok := t.modes[mode]
	return ok
}

// Crater maps a machine current into the nearest entry of the smaller
// empirical crater grid using relative-position scaling over the machine
// table's current range.
func (t *Tables) Crater(machineCurrent float64) (CraterStats, error) {
	if machineCurrent < t.minCurrent || machineCurrent > t.maxCurrent {
		return CraterStats{}, types.ConfigErrorf(
			"machine current %.1f A outside table range [%.1f, %.1f]",
			machineCurrent, t.minCurrent, t.maxCurrent)
	}
	m := len(t.craters)
	if m == 1 || t.maxCurrent == t.minCurrent {
		return t.craters[0], nil
	}

	// scale the relative position into the crater-current span and take
	// the nearest characterized row
	r := (machineCurrent - t.minCurrent) / (t.maxCurrent - t.minCurrent)
	scaled := t.craters[0].Current + r*(t.craters[m-1].Current-t.craters[0].Current)
	best := 0
	for i := 1; i < m; i++ {
		if math.Abs(t.craters[i].Current-scaled) < math.Abs(t.craters[best].Current-scaled) {
			best = i
		}
	}
	return t.craters[best], nil
}

// Range returns the machine table's current span [A].
func (t *Tables) Range() (min, max float64) {
	return t.minCurrent, t.maxCurrent
}
