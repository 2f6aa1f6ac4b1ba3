package modules

import (
	"github.com/edmlab/wedm-sim/types"
)

// DielectricConfig parametrizes the debris and deionization bookkeeping.
type DielectricConfig struct {
	Beta            float64 // debris increment per µm³ of crater volume
	Gamma           float64 // base decay rate per tick at FlowRate = 1
	TauDeionization int     // ionized-channel lifetime [ticks]
	Temperature     float64 // bulk dielectric temperature [K]
	FlowRate        float64 // normalized flushing condition, 0-1
}

func DefaultDielectricConfig() DielectricConfig {
	return DielectricConfig{
		Beta:            3e-6,
		Gamma:           5e-4,
		TauDeionization: 6,
		Temperature:     293.15,
		FlowRate:        1.0,
	}
}

// Dielectric tracks the debris concentration and the transient ionized
// channel. The concentration feeds back into short-circuit detection in
// extended ignition models; the base model publishes it as informational
// state.
type Dielectric struct {
	cfg DielectricConfig
}

var _ types.Module = &Dielectric{}

func NewDielectric(cfg DielectricConfig) (*Dielectric, error) {
	if cfg.FlowRate < 0 || cfg.FlowRate > 1 {
		return nil, types.ConfigErrorf("flow rate %.3f outside [0, 1]", cfg.FlowRate)
	}
	if cfg.Gamma < 0 || cfg.Gamma*cfg.FlowRate >= 1 {
		return nil, types.ConfigErrorf("decay rate %.5f invalid", cfg.Gamma)
	}
	if cfg.TauDeionization < 1 {
		return nil, types.ConfigErrorf("deionization time %d must be at least 1 tick", cfg.TauDeionization)
	}
	return &Dielectric{cfg: cfg}, nil
}

func (d *Dielectric) Name() string { return "dielectric" }

func (d *Dielectric) Update(s *types.SimulationState) error {
	s.DielectricTemperature = d.cfg.Temperature
	s.DielectricFlowRate = d.cfg.FlowRate

	// debris and channel are produced on the same fresh-spark event that
	// removes material
	if s.SparkStatus.Fresh() {
		s.DebrisConcentration += d.cfg.Beta * s.LastCraterVolume
		if s.DebrisConcentration > 1 {
			s.DebrisConcentration = 1
		}
		s.IonizedChannel = types.IonizedChannel{
			Active:    true,
			Location:  s.SparkStatus.Location,
			Remaining: d.cfg.TauDeionization,
		}
	}

	if s.IonizedChannel.Active {
		s.IonizedChannel.Remaining--
		if s.IonizedChannel.Remaining <= 0 {
			s.IonizedChannel = types.IonizedChannel{}
		}
	}

	s.DebrisConcentration *= 1 - d.cfg.Gamma*s.DielectricFlowRate
	if s.DebrisConcentration < 0 {
		s.DebrisConcentration = 0
	}
	return nil
}
