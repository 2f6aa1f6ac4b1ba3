package modules

import (
	"math"

	"github.com/edmlab/wedm-sim/types"
)

// The squared current in the Joule term carries a 0.5 factor from the
// fitted generator model, most likely an RMS/average-power approximation
// of the pulsed waveform. It is preserved as given, not re-derived.
const jouleRMSFactor = 0.5

const referenceTemperature = 293.15 // [K], for the resistivity fit

// WireConfig holds the geometry and the brass material properties of the
// travelling wire, plus the boundary conditions of the thermal model.
type WireConfig struct {
	WorkpieceHeight float64 // [mm]
	BufferBottom    float64 // wire length below the cutting zone [mm]
	BufferTop       float64 // wire length above the cutting zone [mm]
	SegmentLength   float64 // [mm]
	WireDiameter    float64 // [mm]

	SpoolTemperature float64 // Dirichlet boundary at segment 0 [K]
	MeltingPoint     float64 // wire-break threshold [K]

	Density          float64 // [kg/m³]
	SpecificHeat     float64 // [J/(kg·K)]
	Conductivity     float64 // [W/(m·K)]
	ResistivityRef   float64 // [Ω·m] at the reference temperature
	AlphaResistivity float64 // [1/K], linear resistivity coefficient
	ConvectionCoeff  float64 // [W/(m²·K)]
	PlasmaEfficiency float64 // fraction of discharge power into the wire
	UnwindVelocity   float64 // wire travel speed [m/s]
	TimeStep         float64 // [s], the 1 µs tick
}

// DefaultWireConfig is the brass main-cut setup of the reference process.
func DefaultWireConfig() WireConfig {
	return WireConfig{
		WorkpieceHeight:  10.0,
		BufferBottom:     30.0,
		BufferTop:        20.0,
		SegmentLength:    1.0,
		WireDiameter:     0.25,
		SpoolTemperature: 293.15,
		MeltingPoint:     1180.0,
		Density:          8400.0,
		SpecificHeat:     377.0,
		Conductivity:     120.0,
		ResistivityRef:   6.4e-8,
		AlphaResistivity: 0.0039,
		ConvectionCoeff:  14000.0,
		PlasmaEfficiency: 0.1,
		UnwindVelocity:   0.1,
		TimeStep:         1e-6,
	}
}

// Wire is the explicit finite-difference solver for the 1-D temperature
// field of the travelling wire. Five terms per segment and tick:
// conduction, Joule heating, plasma spot heating, convection into the
// dielectric and advection by wire travel.
type Wire struct {
	cfg WireConfig

	segments  int
	zoneStart int // first segment of the cutting zone
	zoneEnd   int // one past the last segment of the cutting zone

	deltaY      float64 // segment length [m]
	crossArea   float64 // wire cross section [m²]
	surfaceArea float64 // lateral surface per segment [m²]
	kCond       float64 // conduction coefficient [W/K]
	advCoeff    float64 // advection coefficient [W/K]
	hEff        float64 // effective convection coefficient [W/(m²·K)]
	denominator float64 // rho * cp * S * deltaY [J/K]

	scratch []float64
}

var _ types.Module = &Wire{}

func NewWire(cfg WireConfig) (*Wire, error) {
	if cfg.WorkpieceHeight <= 0 {
		return nil, types.ConfigErrorf("non-positive workpiece height %.3f", cfg.WorkpieceHeight)
	}
	if cfg.SegmentLength <= 0 {
		return nil, types.ConfigErrorf("non-positive segment length %.3f", cfg.SegmentLength)
	}
	if cfg.WireDiameter <= 0 {
		return nil, types.ConfigErrorf("non-positive wire diameter %.3f", cfg.WireDiameter)
	}
	if cfg.Density <= 0 || cfg.SpecificHeat <= 0 || cfg.Conductivity <= 0 {
		return nil, types.ConfigErrorf("non-positive wire material properties")
	}
	if cfg.TimeStep <= 0 {
		return nil, types.ConfigErrorf("non-positive time step %.2e", cfg.TimeStep)
	}

	totalLength := cfg.BufferBottom + cfg.WorkpieceHeight + cfg.BufferTop
	segments := int(totalLength / cfg.SegmentLength)
	if segments < 2 {
		return nil, types.ConfigErrorf("wire resolves to %d segments, need at least 2", segments)
	}

	w := &Wire{
		cfg:       cfg,
		segments:  segments,
		zoneStart: int(cfg.BufferBottom / cfg.SegmentLength),
	}
	w.zoneEnd = w.zoneStart + int(cfg.WorkpieceHeight/cfg.SegmentLength)
	if w.zoneEnd > segments {
		w.zoneEnd = segments
	}
	if w.zoneStart >= w.zoneEnd {
		return nil, types.ConfigErrorf("cutting zone is empty (start %d, end %d)", w.zoneStart, w.zoneEnd)
	}

	radius := cfg.WireDiameter / 2.0 * 1e-3
	w.deltaY = cfg.SegmentLength * 1e-3
	w.crossArea = math.Pi * radius * radius
	w.surfaceArea = 2 * math.Pi * radius * w.deltaY
	w.kCond = cfg.Conductivity * w.crossArea / w.deltaY
	w.advCoeff = cfg.Density * cfg.SpecificHeat * cfg.UnwindVelocity * w.crossArea / w.deltaY
	w.hEff = cfg.ConvectionCoeff * (1 + 0.5*cfg.UnwindVelocity)
	w.denominator = cfg.Density * cfg.SpecificHeat * w.crossArea * w.deltaY
	w.scratch = make([]float64, segments)

	// The explicit scheme is only stable when the tick is small against
	// the diffusion and advection scales of the chosen segment length.
	diffusivity := cfg.Conductivity / (cfg.Density * cfg.SpecificHeat)
	stability := cfg.TimeStep * (2*diffusivity/(w.deltaY*w.deltaY) + cfg.UnwindVelocity/w.deltaY)
	if stability >= 1 {
		return nil, types.ConfigErrorf(
			"explicit thermal scheme unstable: dt=%.2e, segment=%.3f mm (criterion %.3f >= 1)",
			cfg.TimeStep, cfg.SegmentLength, stability)
	}

	return w, nil
}

func (w *Wire) Name() string { return "wire" }

// Segments is the fixed length of the temperature field.
func (w *Wire) Segments() int { return w.segments }

// SparkSegment maps a discharge location [mm along the workpiece height]
// to its wire segment index.
func (w *Wire) SparkSegment(location float64) int {
	idx := w.zoneStart + int(location/w.cfg.SegmentLength)
	if idx < 0 {
		return 0
	}
	if idx >= w.segments {
		return w.segments - 1
	}
	return idx
}

func (w *Wire) Update(s *types.SimulationState) error {
	if s.Status == types.StatusWireBroken {
		return nil
	}
	T := s.WireTemperature
	if len(T) != w.segments {
		return types.ConfigErrorf("temperature field has %d segments, wire expects %d", len(T), w.segments)
	}

	T[0] = w.cfg.SpoolTemperature

	current := s.Current
	jouleBase := jouleRMSFactor * current * current * w.deltaY / w.crossArea

	sparkSeg := -1
	if s.SparkStatus.State == types.SparkOn && s.SparkStatus.HasLocation {
		sparkSeg = w.SparkSegment(s.SparkStatus.Location)
	}

	last := w.segments - 1
	for i := 1; i < w.segments; i++ {
		var conduction float64
		if i == last {
			// zero-gradient outlet, one-sided difference
			conduction = w.kCond * (T[i-1] - T[i])
		} else {
			conduction = w.kCond * (T[i-1] - 2*T[i] + T[i+1])
		}

		resistivity := w.cfg.ResistivityRef * (1 + w.cfg.AlphaResistivity*(T[i]-referenceTemperature))
		joule := jouleBase * resistivity

		var plasma float64
		if i == sparkSeg {
			plasma = w.cfg.PlasmaEfficiency * s.Voltage * current
		}

		convection := w.hEff * w.surfaceArea * (T[i] - s.DielectricTemperature)
		advection := w.advCoeff * (T[i-1] - T[i])

		w.scratch[i] = T[i] + (conduction+joule+plasma-convection+advection)/w.denominator*w.cfg.TimeStep
	}

	broken := false
	sum := 0.0
	for i := 1; i < w.segments; i++ {
		T[i] = w.scratch[i]
		if math.IsNaN(T[i]) || math.IsInf(T[i], 0) {
			return types.InstabilityErrorf("non-finite wire temperature at segment %d, tick %d", i, s.Time)
		}
		if T[i] >= w.cfg.MeltingPoint {
			broken = true
		}
	}
	T[0] = w.cfg.SpoolTemperature

	for i := w.zoneStart; i < w.zoneEnd; i++ {
		sum += T[i]
	}
	s.WireAverageTemperature = sum / float64(w.zoneEnd-w.zoneStart)

	if broken {
		s.Status = types.StatusWireBroken
	}
	return nil
}
