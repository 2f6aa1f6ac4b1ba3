package runner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TERMINAL PRINTER

type Printer struct {
	outputs       []*Output
	ctx           context.Context
	printerCtx    context.Context
	printerCancel context.CancelFunc
	frequency     int

	writer  *uilive.Writer
	writers []io.Writer
}

func NewPrinter(ctx context.Context, outputs []*Output, frequency int) *Printer {
	printerCtx, cancel := context.WithCancel(ctx)
	size := len(outputs)
	writers := make([]io.Writer, size)
	writer := uilive.New()
	for i := 0; i < size-1; i++ {
		writers[i] = writer.Newline()
	}

	return &Printer{
		outputs:       outputs,
		ctx:           ctx,
		printerCtx:    printerCtx,
		printerCancel: cancel,
		frequency:     frequency,

		writer:  writer,
		writers: writers,
	}
}

func (p *Printer) Start() {
	go func() {
		for {
			select {
			case <-p.printerCtx.Done():
				p.writer.Stop()
				return
			case <-p.ctx.Done():
				p.writer.Stop()
				return
			case <-time.After(time.Duration(p.frequency) * time.Second):
				p.print()
			}
		}
	}()
}

func (p *Printer) Stop() {
	p.printerCancel()
}

func (p *Printer) print() {
	for i, output := range p.outputs {
		if !output.Running() {
			continue
		}
		s := output.Get()
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}

// EPISODE OUTPUT

// Output holds the printable status of one running episode.
type Output struct {
	mu        sync.Mutex
	printable string
	running   bool
}

func NewOutput() *Output {
	return &Output{}
}

// Set the output string (blocking)
func (o *Output) Set(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.printable = s
}

// TrySet sets the output string without blocking the caller; the tick
// loop never waits on the printer.
func (o *Output) TrySet(s string) bool {
	if o.mu.TryLock() {
		defer o.mu.Unlock()
		o.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (o *Output) Get() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.printable
}

func (o *Output) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Output) SetRunning(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = v
}
