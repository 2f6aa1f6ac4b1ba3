package modules

import (
	"github.com/edmlab/wedm-sim/types"
)

// ControlMode selects the servo control law.
type ControlMode int

const (
	// PositionControl drives toward x + TargetDelta with a PD law.
	PositionControl ControlMode = iota
	// VelocityControl drives the velocity toward TargetDelta with a
	// first-order law.
	VelocityControl
)

// MechanicsConfig parametrizes the saturated servo axis.
type MechanicsConfig struct {
	Mode ControlMode

	OmegaN float64 // natural frequency [rad/s]
	Zeta   float64 // damping ratio (position mode only)

	MaxAcceleration float64 // [µm/s²]
	MaxJerk         float64 // [µm/s³]
	MaxVelocity     float64 // [µm/s]

	TimeStep float64 // [s]
}

func DefaultMechanicsConfig() MechanicsConfig {
	return MechanicsConfig{
		Mode:            PositionControl,
		OmegaN:          200.0,
		Zeta:            0.55,
		MaxAcceleration: 3.0e5,
		MaxJerk:         1.0e8,
		MaxVelocity:     3.0e4,
		TimeStep:        1e-6,
	}
}

// Mechanics updates the wire position and velocity from the commanded
// delta through a saturated second- or first-order servo model. The
// previous acceleration persists in the state so jerk limiting is
// meaningful across ticks.
type Mechanics struct {
	cfg       MechanicsConfig
	maxJerkDt float64
}

var _ types.Module = &Mechanics{}

func NewMechanics(cfg MechanicsConfig) (*Mechanics, error) {
	if cfg.Mode != PositionControl && cfg.Mode != VelocityControl {
		return nil, types.ConfigErrorf("unknown control mode %d", cfg.Mode)
	}
	if cfg.OmegaN <= 0 {
		return nil, types.ConfigErrorf("non-positive natural frequency %.3f", cfg.OmegaN)
	}
	if cfg.MaxAcceleration <= 0 || cfg.MaxJerk <= 0 || cfg.MaxVelocity <= 0 {
		return nil, types.ConfigErrorf("non-positive actuator limits")
	}
	if cfg.TimeStep <= 0 {
		return nil, types.ConfigErrorf("non-positive time step %.2e", cfg.TimeStep)
	}
	return &Mechanics{cfg: cfg, maxJerkDt: cfg.MaxJerk * cfg.TimeStep}, nil
}

func (m *Mechanics) Name() string { return "mechanics" }

func (m *Mechanics) Update(s *types.SimulationState) error {
	v := s.WireVelocity

	var aNom float64
	if m.cfg.Mode == PositionControl {
		// -2*zeta*omega*v - omega² * (x - (x + delta))
		aNom = -2*m.cfg.Zeta*m.cfg.OmegaN*v + m.cfg.OmegaN*m.cfg.OmegaN*s.TargetDelta
	} else {
		aNom = -m.cfg.OmegaN * (v - s.TargetDelta)
	}

	if aNom > m.cfg.MaxAcceleration {
		aNom = m.cfg.MaxAcceleration
	} else if aNom < -m.cfg.MaxAcceleration {
		aNom = -m.cfg.MaxAcceleration
	}

	da := aNom - s.PrevAcceleration
	if da > m.maxJerkDt {
		da = m.maxJerkDt
	} else if da < -m.maxJerkDt {
		da = -m.maxJerkDt
	}
	a := s.PrevAcceleration + da
	s.PrevAcceleration = a

	v += a * m.cfg.TimeStep
	if v > m.cfg.MaxVelocity {
		v = m.cfg.MaxVelocity
	} else if v < -m.cfg.MaxVelocity {
		v = -m.cfg.MaxVelocity
	}

	s.WireVelocity = v
	s.WirePosition += v * m.cfg.TimeStep

	if !s.Finite() {
		return types.InstabilityErrorf("non-finite servo state at tick %d", s.Time)
	}
	return nil
}
