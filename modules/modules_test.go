package modules

import (
	"testing"

	"github.com/edmlab/wedm-sim/tables"
	"github.com/edmlab/wedm-sim/types"
)

// testTables builds a small in-memory fixture covering the mode codes the
// module tests use. With this range, 60 A maps to the 1 A crater row and
// 600 A to the 17 A row.
func testTables(t *testing.T) *tables.Tables {
	t.Helper()
	tbl, err := tables.New(
		[]tables.CurrentMode{
			{Mode: 1, Current: 25.0},
			{Mode: 5, Current: 60.0},
			{Mode: 19, Current: 600.0},
		},
		[]tables.CraterStats{
			{Current: 1.0, MeanArea: 700, StdArea: 150, MeanDepth: 2.0, MeanVolume: 950, StdVolume: 240},
			{Current: 5.0, MeanArea: 2600, StdArea: 450, MeanDepth: 4.1, MeanVolume: 7100, StdVolume: 1400},
			{Current: 17.0, MeanArea: 8100, StdArea: 1100, MeanDepth: 8.2, MeanVolume: 44600, StdVolume: 8300},
		},
	)
	if err != nil {
		t.Fatalf("building tables fixture: %v", err)
	}
	return tbl
}

// testState is a running state with valid generator settings and a
// positive gap.
func testState(gap float64) *types.SimulationState {
	s := types.NewSimulationState(60, 293.15)
	s.WirePosition = 0
	s.WorkpiecePosition = gap
	s.TargetVoltage = 80.0
	s.CurrentMode = 5
	s.OnTime = 3
	s.OffTime = 5
	s.DielectricTemperature = 293.15
	s.DielectricFlowRate = 1.0
	return s
}
