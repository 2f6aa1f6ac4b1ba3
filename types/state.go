package types

import "math"

// SparkState is the discrete state of the spark generator state machine.
type SparkState int

const (
	// SparkIdle: open-circuit voltage applied, waiting for breakdown.
	SparkIdle SparkState = iota
	// SparkOn: active discharge (or short circuit), full current flowing.
	SparkOn
	// SparkOff: post-discharge rest, zero current and voltage.
	SparkOff
)

func (s SparkState) String() string {
	switch s {
	case SparkIdle:
		return "Idle"
	case SparkOn:
		return "On"
	case SparkOff:
		return "Off"
	}
	return "Unknown"
}

// SparkStatus tracks the spark state machine.
// Duration resets to 0 on every transition. Location is set only on the
// Idle->On transition of a regular breakdown and is retained through Off;
// a short-circuit discharge has no location (HasLocation == false).
type SparkStatus struct {
	State       SparkState
	Location    float64 // distance along the workpiece height [mm]
	HasLocation bool
	Duration    int // ticks since state entry
}

// Fresh reports whether this is the first tick of a regular discharge,
// the only tick on which material is removed and debris is produced.
func (s SparkStatus) Fresh() bool {
	return s.State == SparkOn && s.Duration == 0 && s.HasLocation
}

// IonizedChannel marks a transiently conductive location left behind by a
// discharge. Consumed by extended ignition models; informational in the
// base model.
type IonizedChannel struct {
	Active    bool
	Location  float64 // [mm]
	Remaining int     // ticks until deionization
}

// Status is the episode-level condition of the process. Terminal statuses
// are valid physical outcomes, not errors.
type Status int

const (
	StatusRunning Status = iota
	StatusWireBroken
	StatusTargetReached
	StatusShortCircuitTimeout
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusWireBroken:
		return "WireBroken"
	case StatusTargetReached:
		return "TargetReached"
	case StatusShortCircuitTimeout:
		return "ShortCircuitTimeout"
	}
	return "Unknown"
}

// SimulationState is the single source of truth for the process. It is
// owned by the orchestrator and mutated in place by each module during its
// turn within a tick. All positions are in µm, velocities in µm/s,
// temperatures in K, times in µs (= ticks).
type SimulationState struct {
	// time bookkeeping
	Time           int64
	TimeSinceServo int64

	// electrical, derived each tick from the spark state and the
	// generator settings
	Voltage float64 // [V]
	Current float64 // [A]

	// generator settings, applied from the command; read-only to modules
	TargetVoltage float64
	CurrentMode   int
	OnTime        int // [ticks]
	OffTime       int // [ticks]

	// positions and motion
	WirePosition      float64
	WorkpiecePosition float64
	WireVelocity      float64
	PrevAcceleration  float64 // [µm/s²], persists across ticks for jerk limiting

	SparkStatus    SparkStatus
	IsShortCircuit bool

	// wire thermal field, fixed length for the episode lifetime,
	// index 0 pinned to the spool temperature
	WireTemperature        []float64
	WireAverageTemperature float64 // mean over the cutting zone

	// dielectric
	DebrisConcentration   float64 // normalized, non-negative
	DielectricFlowRate    float64 // normalized 0-1
	DielectricTemperature float64
	IonizedChannel        IonizedChannel
	LastCraterVolume      float64 // [µm³], most recent sampled crater

	// servo command for the current tick
	TargetDelta float64

	Status Status
}

// NewSimulationState creates the state at episode start: all thermal
// segments at the spool temperature, spark Idle, zero velocities.
func NewSimulationState(segments int, spoolTemperature float64) *SimulationState {
	temps := make([]float64, segments)
	for i := range temps {
		temps[i] = spoolTemperature
	}
	return &SimulationState{
		WireTemperature:        temps,
		WireAverageTemperature: spoolTemperature,
		DielectricTemperature:  spoolTemperature,
		SparkStatus:            SparkStatus{State: SparkIdle},
		Status:                 StatusRunning,
	}
}

// Gap is the distance between wire and workpiece along the cutting axis.
// Gap <= 0 denotes mechanical contact.
func (s *SimulationState) Gap() float64 {
	return s.WorkpiecePosition - s.WirePosition
}

// Terminal reports whether the episode has ended in a physical terminal
// condition.
func (s *SimulationState) Terminal() bool {
	return s.Status != StatusRunning
}

// Finite reports whether the mechanical scalars of the state are finite.
func (s *SimulationState) Finite() bool {
	for _, v := range []float64{s.WirePosition, s.WorkpiecePosition, s.WireVelocity, s.PrevAcceleration} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
