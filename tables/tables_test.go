package tables

import (
	"errors"
	"testing"

	"github.com/edmlab/wedm-sim/types"
)

func loadDefault(t *testing.T) *Tables {
	t.Helper()
	tbl, err := Load("data/currents.json", "data/craters.json")
	if err != nil {
		t.Fatalf("loading tables: %v", err)
	}
	return tbl
}

func TestMachineCurrentLookup(t *testing.T) {
	tbl := loadDefault(t)

	current, err := tbl.MachineCurrent(5)
	if err != nil {
		t.Fatalf("mode 5: %v", err)
	}
	if current != 60.0 {
		t.Errorf("mode 5 maps to %.1f A, want 60.0", current)
	}

	if _, err := tbl.MachineCurrent(42); err == nil {
		t.Errorf("expected error for unknown mode 42")
	} else if !errors.Is(err, types.ErrConfig) {
		t.Errorf("unknown mode error should wrap ErrConfig, got %v", err)
	}
}

func TestCraterRelativeScaling(t *testing.T) {
	tbl := loadDefault(t)
	min, max := tbl.Range()
	if min != 25.0 || max != 600.0 {
		t.Fatalf("table range [%.1f, %.1f], want [25.0, 600.0]", min, max)
	}

	// characterized machine currents land on their documented crater rows
	pairs := []struct {
		machine float64
		crater  float64
	}{
		{60, 1},   // I5
		{110, 3},  // I9
		{215, 5},  // I13
		{425, 11}, // I17
		{600, 17}, // I19
	}
	for _, p := range pairs {
		row, err := tbl.Crater(p.machine)
		if err != nil {
			t.Fatalf("crater for %.0f A: %v", p.machine, err)
		}
		if row.Current != p.crater {
			t.Errorf("machine %.0f A maps to %.1f A crater row, want %.1f",
				p.machine, row.Current, p.crater)
		}
	}

	// the extremes of the machine range pin the extremes of the crater grid
	if low, err := tbl.Crater(min); err != nil || low.Current != 1.0 {
		t.Errorf("min machine current maps to %+v, %v; want the 1.0 A row", low, err)
	}
	if high, err := tbl.Crater(max); err != nil || high.Current != 17.0 {
		t.Errorf("max machine current maps to %+v, %v; want the 17.0 A row", high, err)
	}

	// the mapped row never decreases as the machine current grows
	prev := -1.0
	for _, c := range []float64{25, 60, 110, 215, 425, 600} {
		row, err := tbl.Crater(c)
		if err != nil {
			t.Fatalf("crater for %.0f A: %v", c, err)
		}
		if row.Current < prev {
			t.Errorf("crater mapping not monotonic at %.0f A", c)
		}
		prev = row.Current
	}

	if _, err := tbl.Crater(1000.0); err == nil {
		t.Errorf("expected error for out-of-range machine current")
	}
}

func TestNewValidation(t *testing.T) {
	goodModes := []CurrentMode{{Mode: 1, Current: 60}}
	goodCraters := []CraterStats{{Current: 5, MeanArea: 1, MeanDepth: 4, MeanVolume: 7000, StdVolume: 1400}}

	cases := []struct {
		name    string
		modes   []CurrentMode
		craters []CraterStats
	}{
		{"empty modes", nil, goodCraters},
		{"empty craters", goodModes, nil},
		{"non-positive current", []CurrentMode{{Mode: 1, Current: 0}}, goodCraters},
		{"duplicate mode", []CurrentMode{{Mode: 1, Current: 60}, {Mode: 1, Current: 80}}, goodCraters},
		{"negative std", goodModes, []CraterStats{{Current: 5, MeanDepth: 4, MeanVolume: 7000, StdVolume: -1}}},
		{"non-positive volume", goodModes, []CraterStats{{Current: 5, MeanDepth: 4, MeanVolume: 0, StdVolume: 1}}},
	}
	for _, tc := range cases {
		if _, err := New(tc.modes, tc.craters); err == nil {
			t.Errorf("%s: expected configuration error", tc.name)
		} else if !errors.Is(err, types.ErrConfig) {
			t.Errorf("%s: error should wrap ErrConfig, got %v", tc.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("data/currents.json", "data/missing.json"); err == nil {
		t.Errorf("expected error for missing crater file")
	}
}
