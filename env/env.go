// Package env composes the five physical modules into the per-tick
// wire-EDM process engine. The engine is single-threaded and synchronous:
// one call advances the full state by one microsecond tick, with the
// modules running in a fixed causal order. Parallelism is across episodes,
// each owning a private state and a private seeded generator.
package env

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/exp/rand"

	"github.com/edmlab/wedm-sim/modules"
	"github.com/edmlab/wedm-sim/tables"
	"github.com/edmlab/wedm-sim/types"
)

// Config collects the episode-invariant parameters of the engine.
type Config struct {
	// initial positions [µm]
	WireStart      float64
	WorkpieceStart float64
	// episode ends when the workpiece has reached this position [µm]
	TargetPosition float64

	// ticks of uninterrupted mechanical contact before the episode is
	// terminated with StatusShortCircuitTimeout
	ShortCircuitLimit int

	// ServoInterval is the number of ticks between command applications.
	// Commands submitted between control boundaries are ignored; the last
	// applied command stays latched in the state. 1 applies every tick.
	ServoInterval int

	Material   modules.MaterialConfig
	Dielectric modules.DielectricConfig
	Wire       modules.WireConfig
	Mechanics  modules.MechanicsConfig

	Logger *slog.Logger
}

// DefaultConfig is the main-cut reference setup: 30 µm initial gap, 5 mm
// target cut, 60 s short-circuit safety bound at the 1 µs tick.
func DefaultConfig() Config {
	return Config{
		WireStart:         30.0,
		WorkpieceStart:    100.0,
		TargetPosition:    5000.0,
		ShortCircuitLimit: 60_000_000,
		ServoInterval:     1,
		Material:          modules.DefaultMaterialConfig(),
		Dielectric:        modules.DefaultDielectricConfig(),
		Wire:              modules.DefaultWireConfig(),
		Mechanics:         modules.DefaultMechanicsConfig(),
	}
}

// WireEDM is the orchestrator. It owns the simulation state and advances
// it by invoking ignition, material removal, dielectric, wire thermal and
// mechanics in that order, once per tick.
type WireEDM struct {
	cfg    Config
	tables *tables.Tables
	log    *slog.Logger

	state   *types.SimulationState
	modules []types.Module
	wire    *modules.Wire
	rng     *rand.Rand

	shortTicks int
}

// New validates the configuration against the shared tables. The engine is
// unusable until Reset seeds an episode.
func New(cfg Config, tbl *tables.Tables) (*WireEDM, error) {
	if tbl == nil {
		return nil, types.ConfigErrorf("nil lookup tables")
	}
	if cfg.TargetPosition <= cfg.WorkpieceStart {
		return nil, types.ConfigErrorf("target position %.1f not beyond workpiece start %.1f",
			cfg.TargetPosition, cfg.WorkpieceStart)
	}
	if cfg.ShortCircuitLimit <= 0 {
		return nil, types.ConfigErrorf("non-positive short-circuit limit %d", cfg.ShortCircuitLimit)
	}
	if cfg.ServoInterval < 1 {
		return nil, types.ConfigErrorf("servo interval %d must be at least 1 tick", cfg.ServoInterval)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	e := &WireEDM{cfg: cfg, tables: tbl, log: log}

	// construct once to fail fast on bad module configuration; Reset
	// rebuilds with the episode seed
	if err := e.build(rand.New(rand.NewSource(0))); err != nil {
		return nil, err
	}
	e.state = nil
	return e, nil
}

func (e *WireEDM) build(rng *rand.Rand) error {
	ignition, err := modules.NewIgnition(e.tables, rng, e.cfg.Material.WorkpieceHeight)
	if err != nil {
		return err
	}
	material, err := modules.NewMaterial(e.cfg.Material, e.tables, rng)
	if err != nil {
		return err
	}
	dielectric, err := modules.NewDielectric(e.cfg.Dielectric)
	if err != nil {
		return err
	}
	wire, err := modules.NewWire(e.cfg.Wire)
	if err != nil {
		return err
	}
	mechanics, err := modules.NewMechanics(e.cfg.Mechanics)
	if err != nil {
		return err
	}

	e.rng = rng
	e.wire = wire
	e.modules = []types.Module{ignition, material, dielectric, wire, mechanics}
	return nil
}

// Reset starts a new episode with an explicitly owned seeded generator so
// that replaying a seed reproduces an identical trajectory.
func (e *WireEDM) Reset(seed uint64) (*types.SimulationState, error) {
	if err := e.build(rand.New(rand.NewSource(seed))); err != nil {
		return nil, err
	}

	s := types.NewSimulationState(e.wire.Segments(), e.cfg.Wire.SpoolTemperature)
	s.WirePosition = e.cfg.WireStart
	s.WorkpiecePosition = e.cfg.WorkpieceStart
	s.DielectricTemperature = e.cfg.Dielectric.Temperature
	s.DielectricFlowRate = e.cfg.Dielectric.FlowRate

	e.state = s
	e.shortTicks = 0
	e.log.Debug("episode reset", "seed", seed, "segments", e.wire.Segments())
	return s, nil
}

// State exposes the current simulation state to the external collaborator.
func (e *WireEDM) State() *types.SimulationState { return e.state }

// Tick applies the command (at control boundaries; see ServoInterval) and
// advances the state by one microsecond. A tick is atomic: either all
// modules ran and the state advanced, or an error aborted the episode.
// Terminal physical conditions are reported through the state's Status,
// not as errors.
func (e *WireEDM) Tick(cmd types.Command) (*types.SimulationState, error) {
	if e.state == nil {
		return nil, types.ConfigErrorf("Tick before Reset")
	}
	if e.state.Terminal() {
		return e.state, types.ErrEpisodeFinished
	}

	// control boundary: outside it the latched command keeps driving
	if e.state.Time == 0 || e.state.TimeSinceServo >= int64(e.cfg.ServoInterval) {
		if err := e.applyCommand(cmd); err != nil {
			return e.state, err
		}
		e.state.TimeSinceServo = 0
	}

	for _, m := range e.modules {
		if err := m.Update(e.state); err != nil {
			return e.state, fmt.Errorf("%s: %w", m.Name(), err)
		}
		if e.state.Terminal() {
			break
		}
	}

	e.state.Time++
	e.state.TimeSinceServo++
	e.checkTerminal()
	return e.state, nil
}

func (e *WireEDM) applyCommand(cmd types.Command) error {
	g := cmd.Generator
	if !e.tables.HasMode(g.CurrentMode) {
		return types.ConfigErrorf("unknown current mode %d", g.CurrentMode)
	}
	if g.TargetVoltage <= 0 {
		return types.ConfigErrorf("non-positive target voltage %.1f", g.TargetVoltage)
	}
	if g.OnTime < 1 || g.OffTime < 1 {
		return types.ConfigErrorf("ON/OFF times must be at least 1 tick (got %d/%d)", g.OnTime, g.OffTime)
	}
	if math.IsNaN(cmd.TargetDelta) || math.IsInf(cmd.TargetDelta, 0) {
		return types.ConfigErrorf("non-finite target delta")
	}

	s := e.state
	s.TargetDelta = cmd.TargetDelta
	s.TargetVoltage = g.TargetVoltage
	s.CurrentMode = g.CurrentMode
	s.OnTime = g.OnTime
	s.OffTime = g.OffTime
	return nil
}

func (e *WireEDM) checkTerminal() {
	s := e.state
	if s.Terminal() {
		return
	}
	if s.IsShortCircuit {
		e.shortTicks++
		if e.shortTicks > e.cfg.ShortCircuitLimit {
			s.Status = types.StatusShortCircuitTimeout
			return
		}
	} else {
		e.shortTicks = 0
	}
	if s.WorkpiecePosition >= e.cfg.TargetPosition {
		s.Status = types.StatusTargetReached
	}
}
