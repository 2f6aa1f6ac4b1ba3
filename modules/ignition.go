// Package modules implements the five physical sub-models of the wire-EDM
// process. Each module mutates the shared simulation state in place for one
// 1 µs tick; the orchestrator composes them in a fixed causal order.
package modules

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/edmlab/wedm-sim/tables"
	"github.com/edmlab/wedm-sim/types"
)

// Empirical fit of the breakdown hazard from delay-time experiments:
// lambda(gap) = ln(2) / (a*gap² + b*gap + c). The quadratic is the given
// fit; it is not re-derived here.
const (
	hazardQuadA = 0.48
	hazardQuadB = -3.69
	hazardQuadC = 14.05
)

// gap values are discretized to 0.01 µm for the hazard cache key.
const hazardKeyScale = 100.0

// Ignition is the stochastic spark / short-circuit state machine. It reads
// the gap and writes the spark status and the instantaneous current and
// voltage.
//
// The debris concentration is read from the state each tick and is
// available to extended hazard models (critical-debris short circuits); the
// base model ignores it.
type Ignition struct {
	tables          *tables.Tables
	rng             *rand.Rand
	workpieceHeight float64 // [mm]

	lambdaCache map[int64]float64

	// peak-current cache, invalidated when the mode code changes
	cachedMode    int
	cachedCurrent float64
	cacheValid    bool
}

var _ types.Module = &Ignition{}

// NewIgnition builds the ignition module for one episode. The generator is
// the episode's private seeded source.
func NewIgnition(tbl *tables.Tables, rng *rand.Rand, workpieceHeight float64) (*Ignition, error) {
	if workpieceHeight <= 0 {
		return nil, types.ConfigErrorf("non-positive workpiece height %.3f", workpieceHeight)
	}
	return &Ignition{
		tables:          tbl,
		rng:             rng,
		workpieceHeight: workpieceHeight,
		lambdaCache:     make(map[int64]float64),
	}, nil
}

func (ig *Ignition) Name() string { return "ignition" }

func (ig *Ignition) Update(s *types.SimulationState) error {
	s.IsShortCircuit = s.Gap() <= 0

	peak, err := ig.peakCurrent(s.CurrentMode)
	if err != nil {
		return err
	}

	switch s.SparkStatus.State {
	case types.SparkIdle:
		ig.updateIdle(s, peak)
	case types.SparkOn:
		ig.updateOn(s, peak)
	case types.SparkOff:
		ig.updateOff(s)
	}
	return nil
}

func (ig *Ignition) updateIdle(s *types.SimulationState, peak float64) {
	if s.IsShortCircuit {
		// mechanical contact bypasses the hazard entirely: full
		// current on this same tick, no defined location
		s.SparkStatus = types.SparkStatus{State: types.SparkOn}
		s.Current = peak
		s.Voltage = 0
		return
	}

	s.Current = 0
	s.Voltage = s.TargetVoltage

	if ig.rng.Float64() < ig.hazard(s.Gap()) {
		s.SparkStatus = types.SparkStatus{
			State:       types.SparkOn,
			Location:    ig.rng.Float64() * ig.workpieceHeight,
			HasLocation: true,
		}
		s.Current = peak
		s.Voltage = 0.3 * s.TargetVoltage
	}
}

func (ig *Ignition) updateOn(s *types.SimulationState, peak float64) {
	s.SparkStatus.Duration++
	if s.SparkStatus.Duration >= s.OnTime {
		// location retained through Off
		s.SparkStatus.State = types.SparkOff
		s.SparkStatus.Duration = 0
		s.Current = 0
		s.Voltage = 0
		return
	}
	s.Current = peak
	if s.IsShortCircuit {
		s.Voltage = 0
	} else {
		s.Voltage = 0.3 * s.TargetVoltage
	}
}

func (ig *Ignition) updateOff(s *types.SimulationState) {
	s.SparkStatus.Duration++
	if s.SparkStatus.Duration >= s.OffTime {
		s.SparkStatus = types.SparkStatus{State: types.SparkIdle}
		s.Current = 0
		if s.IsShortCircuit {
			s.Voltage = 0
		} else {
			s.Voltage = s.TargetVoltage
		}
		return
	}
	s.Current = 0
	s.Voltage = 0
}

// hazard is the per-tick conditional breakdown probability for gap > 0.
// It is never evaluated at gap <= 0: that is the deterministic
// short-circuit branch, which returns probability 0 here by design.
func (ig *Ignition) hazard(gap float64) float64 {
	if gap <= 0 {
		return 0
	}
	key := int64(math.Round(gap * hazardKeyScale))
	if p, ok := ig.lambdaCache[key]; ok {
		return p
	}
	g := float64(key) / hazardKeyScale
	p := math.Ln2 / (hazardQuadA*g*g + hazardQuadB*g + hazardQuadC)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	ig.lambdaCache[key] = p
	return p
}

// Hazard exposes the fitted breakdown probability for a given gap [µm].
func (ig *Ignition) Hazard(gap float64) float64 {
	return ig.hazard(gap)
}

func (ig *Ignition) peakCurrent(mode int) (float64, error) {
	if ig.cacheValid && ig.cachedMode == mode {
		return ig.cachedCurrent, nil
	}
	current, err := ig.tables.MachineCurrent(mode)
	if err != nil {
		return 0, err
	}
	ig.cachedMode = mode
	ig.cachedCurrent = current
	ig.cacheValid = true
	return current, nil
}
