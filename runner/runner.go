// Package runner executes batches of simulation episodes in parallel.
// Each episode owns a private engine and a private seeded generator, so
// episodes share no mutable state and need no locking. Cancellation is
// episode-level and checked at tick boundaries only; a tick is atomic.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edmlab/wedm-sim/env"
	"github.com/edmlab/wedm-sim/trace"
	"github.com/edmlab/wedm-sim/types"
)

// Controller stands in for the external control/learning collaborator: it
// produces the per-tick command from the current state.
type Controller interface {
	Command(tick int64, s *types.SimulationState) types.Command
}

// ControllerFunc adapts a function to the Controller interface.
type ControllerFunc func(tick int64, s *types.SimulationState) types.Command

func (f ControllerFunc) Command(tick int64, s *types.SimulationState) types.Command {
	return f(tick, s)
}

// EpisodeConfig configures one episode run.
type EpisodeConfig struct {
	Seed    uint64
	Horizon int // maximum ticks
	// SampleEvery is the trace sampling interval in ticks; 0 disables
	// tracing.
	SampleEvery int
}

// Result is the outcome of one episode.
type Result struct {
	Episode int
	Seed    uint64
	Ticks   int64
	Status  types.Status
	Trace   *trace.Trace
	Err     error
}

// RunEpisode drives one engine from Reset to horizon or terminal state.
func RunEpisode(ctx context.Context, e *env.WireEDM, ctrl Controller, cfg EpisodeConfig) (*Result, error) {
	if cfg.Horizon <= 0 {
		return nil, types.ConfigErrorf("non-positive horizon %d", cfg.Horizon)
	}
	s, err := e.Reset(cfg.Seed)
	if err != nil {
		return nil, err
	}

	res := &Result{Seed: cfg.Seed}
	if cfg.SampleEvery > 0 {
		res.Trace = trace.New()
	}

	for i := 0; i < cfg.Horizon; i++ {
		select {
		case <-ctx.Done():
			res.Ticks = s.Time
			res.Status = s.Status
			return res, ctx.Err()
		default:
		}

		s, err = e.Tick(ctrl.Command(s.Time, s))
		if err != nil {
			res.Ticks = s.Time
			res.Status = s.Status
			res.Err = err
			return res, err
		}
		if res.Trace != nil && s.Time%int64(cfg.SampleEvery) == 0 {
			res.Trace.Append(trace.Snapshot(s))
		}
		if s.Terminal() {
			break
		}
	}
	res.Ticks = s.Time
	res.Status = s.Status
	return res, nil
}

// Batch runs independent episodes concurrently.
type Batch struct {
	// NewEnv builds the engine for episode i; engines must not be shared
	// between episodes.
	NewEnv     func(i int) (*env.WireEDM, error)
	Controller Controller
	Episode    EpisodeConfig
	// Seeds holds one seed per episode; its length is the batch size.
	Seeds []uint64
	// Parallelism bounds concurrent episodes; 0 means run all at once.
	Parallelism int
	// PrintEvery enables the live terminal status, in seconds; 0
	// disables it.
	PrintEvery int

	Logger *slog.Logger
}

// Run executes the batch and returns one result per seed, in order.
func (b *Batch) Run(ctx context.Context) ([]*Result, error) {
	if len(b.Seeds) == 0 {
		return nil, types.ConfigErrorf("empty seed list")
	}
	if b.NewEnv == nil || b.Controller == nil {
		return nil, types.ConfigErrorf("batch needs NewEnv and Controller")
	}
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}

	limit := b.Parallelism
	if limit <= 0 || limit > len(b.Seeds) {
		limit = len(b.Seeds)
	}
	sem := make(chan struct{}, limit)

	outputs := make([]*Output, len(b.Seeds))
	for i := range outputs {
		outputs[i] = NewOutput()
	}
	var printer *Printer
	if b.PrintEvery > 0 {
		printer = NewPrinter(ctx, outputs, b.PrintEvery)
		printer.Start()
		defer printer.Stop()
	}

	results := make([]*Result, len(b.Seeds))
	var wg sync.WaitGroup
	for i, seed := range b.Seeds {
		wg.Add(1)
		go func(i int, seed uint64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outputs[i].SetRunning(true)
			defer outputs[i].SetRunning(false)

			cfg := b.Episode
			cfg.Seed = seed

			e, err := b.NewEnv(i)
			if err != nil {
				results[i] = &Result{Episode: i, Seed: seed, Err: err}
				outputs[i].Set(fmt.Sprintf("episode %3d failed: %v", i, err))
				return
			}

			ctrl := progressController{
				inner:  b.Controller,
				output: outputs[i],
				index:  i,
			}
			res, err := RunEpisode(ctx, e, ctrl, cfg)
			if res == nil {
				res = &Result{Seed: seed}
			}
			res.Episode = i
			res.Err = err
			results[i] = res
			log.Info("episode done",
				"episode", i, "seed", seed,
				"ticks", res.Ticks, "status", res.Status.String(), "err", err)
		}(i, seed)
	}
	wg.Wait()

	var firstErr error
	for _, r := range results {
		if r != nil && r.Err != nil && !errors.Is(r.Err, context.Canceled) {
			firstErr = r.Err
			break
		}
	}
	return results, firstErr
}

// progressController forwards commands and keeps the episode's printable
// status fresh without blocking the tick loop.
type progressController struct {
	inner  Controller
	output *Output
	index  int
}

func (p progressController) Command(tick int64, s *types.SimulationState) types.Command {
	if tick%10000 == 0 {
		p.output.TrySet(fmt.Sprintf("episode %3d | tick %8d | gap %7.2f µm | %s",
			p.index, tick, s.Gap(), s.Status.String()))
	}
	return p.inner.Command(tick, s)
}
