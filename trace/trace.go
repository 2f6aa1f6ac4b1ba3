// Package trace records selected state fields over an episode so the
// external collaborator can inspect trajectories offline. Records are
// appended per control step (or at any sampling interval the caller
// chooses) and persisted as JSONL.
package trace

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/edmlab/wedm-sim/types"
	"github.com/edmlab/wedm-sim/util"
)

// Record is one sampled view of the simulation state.
type Record struct {
	Tick                int64   `json:"tick"`
	WirePosition        float64 `json:"wire_position"`
	WorkpiecePosition   float64 `json:"workpiece_position"`
	Gap                 float64 `json:"gap"`
	WireVelocity        float64 `json:"wire_velocity"`
	Voltage             float64 `json:"voltage"`
	Current             float64 `json:"current"`
	SparkState          string  `json:"spark_state"`
	ShortCircuit        bool    `json:"short_circuit"`
	WireAvgTemperature  float64 `json:"wire_avg_temperature"`
	DebrisConcentration float64 `json:"debris_concentration"`
	Status              string  `json:"status"`
}

// Snapshot captures the trace-relevant fields of the state.
func Snapshot(s *types.SimulationState) Record {
	return Record{
		Tick:                s.Time,
		WirePosition:        s.WirePosition,
		WorkpiecePosition:   s.WorkpiecePosition,
		Gap:                 s.Gap(),
		WireVelocity:        s.WireVelocity,
		Voltage:             s.Voltage,
		Current:             s.Current,
		SparkState:          s.SparkStatus.State.String(),
		ShortCircuit:        s.IsShortCircuit,
		WireAvgTemperature:  s.WireAverageTemperature,
		DebrisConcentration: s.DebrisConcentration,
		Status:              s.Status.String(),
	}
}

// Trace is the ordered sequence of records of one episode.
type Trace struct {
	records []Record
}

func New() *Trace {
	return &Trace{records: make([]Record, 0)}
}

func (t *Trace) Append(r Record) {
	t.records = append(t.records, r)
}

func (t *Trace) Len() int {
	return len(t.records)
}

func (t *Trace) Get(i int) (Record, bool) {
	if i < 0 || i >= len(t.records) {
		return Record{}, false
	}
	return t.records[i], true
}

func (t *Trace) Last() (Record, bool) {
	if len(t.records) == 0 {
		return Record{}, false
	}
	return t.records[len(t.records)-1], true
}

// WriteJSONL appends the trace to a JSONL file, one record per line.
func (t *Trace) WriteJSONL(path string) error {
	lines, err := t.marshal()
	if err != nil {
		return err
	}
	return util.AppendToFile(path, lines...)
}

// SaveJSONL writes the trace to a fresh JSONL file, replacing any previous
// content. Use it for one-file-per-episode layouts.
func (t *Trace) SaveJSONL(path string) error {
	lines, err := t.marshal()
	if err != nil {
		return err
	}
	return util.WriteToFile(path, lines...)
}

func (t *Trace) marshal() ([]string, error) {
	lines := make([]string, 0, len(t.records))
	for _, r := range t.records {
		bs, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(bs))
	}
	return lines, nil
}

// ReadJSONL loads a trace back from a JSONL file.
func ReadJSONL(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := New()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, err
		}
		t.Append(r)
	}
	return t, scanner.Err()
}
