package modules

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/edmlab/wedm-sim/tables"
	"github.com/edmlab/wedm-sim/types"
)

// converts µm³ of crater volume over a mm² cut section into µm of
// workpiece advance: 1e-9 (µm³ -> mm³) times 1e3 (mm -> µm).
const volumeUnitConversion = 1e-6

// MaterialConfig holds the cut geometry for the removal model.
type MaterialConfig struct {
	WireDiameter    float64 // [mm]
	BaseOvercut     float64 // fixed minimum overcut added to the kerf [mm]
	WorkpieceHeight float64 // [mm]
}

// DefaultMaterialConfig mirrors the main-cut setup: 0.25 mm brass wire,
// 20 µm base overcut, 10 mm workpiece.
func DefaultMaterialConfig() MaterialConfig {
	return MaterialConfig{
		WireDiameter:    0.25,
		BaseOvercut:     0.02,
		WorkpieceHeight: 10.0,
	}
}

// modeCache holds the mode-to-crater mapping of the last seen current mode.
// It is an explicit record invalidated by an equality check against the
// previous mode, not a hidden instance field.
type modeCache struct {
	valid  bool
	mode   int
	crater tables.CraterStats
}

// Material samples crater volumes for fresh sparks and advances the
// workpiece. It runs only on the tick where ignition freshly enters On;
// short-circuit discharges and continuation ticks remove nothing.
type Material struct {
	cfg    MaterialConfig
	tables *tables.Tables
	src    rand.Source
	cache  modeCache
}

var _ types.Module = &Material{}

func NewMaterial(cfg MaterialConfig, tbl *tables.Tables, src rand.Source) (*Material, error) {
	if cfg.WireDiameter <= 0 {
		return nil, types.ConfigErrorf("non-positive wire diameter %.3f", cfg.WireDiameter)
	}
	if cfg.BaseOvercut < 0 {
		return nil, types.ConfigErrorf("negative base overcut %.3f", cfg.BaseOvercut)
	}
	if cfg.WorkpieceHeight <= 0 {
		return nil, types.ConfigErrorf("non-positive workpiece height %.3f", cfg.WorkpieceHeight)
	}
	return &Material{cfg: cfg, tables: tbl, src: src}, nil
}

func (m *Material) Name() string { return "material" }

func (m *Material) Update(s *types.SimulationState) error {
	if !s.SparkStatus.Fresh() {
		return nil
	}

	crater, err := m.craterFor(s.CurrentMode)
	if err != nil {
		return err
	}

	// exactly one volume sample per fresh spark, clamped non-negative
	dist := distuv.Normal{Mu: crater.MeanVolume, Sigma: crater.StdVolume, Src: m.src}
	volume := dist.Rand()
	if volume < 0 {
		volume = 0
	}
	s.LastCraterVolume = volume

	kerf := m.cfg.WireDiameter + m.cfg.BaseOvercut + crater.MeanDepth/1000.0
	s.WorkpiecePosition += volume * volumeUnitConversion / (kerf * m.cfg.WorkpieceHeight)
	return nil
}

func (m *Material) craterFor(mode int) (tables.CraterStats, error) {
	if m.cache.valid && m.cache.mode == mode {
		return m.cache.crater, nil
	}
	machineCurrent, err := m.tables.MachineCurrent(mode)
	if err != nil {
		return tables.CraterStats{}, err
	}
	crater, err := m.tables.Crater(machineCurrent)
	if err != nil {
		return tables.CraterStats{}, err
	}
	m.cache = modeCache{valid: true, mode: mode, crater: crater}
	return crater, nil
}
