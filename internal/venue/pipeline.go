package venue

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/driftfeed/marketfeed/internal/obs"
	"github.com/driftfeed/marketfeed/internal/ring"
)

// PipelineConfig bundles the CPU cores the I/O and parser goroutines
// should be pinned to. A negative value skips pinning for that thread.
type PipelineConfig struct {
	IOCore     int
	ParserCore int
	RingSize   int
}

// Pipeline composes one Client, one SPSC ring, and one Processor. It
// owns the I/O goroutine (drives the client's reactor) and the parser
// goroutine (runs the processor loop), each locked to its own OS thread
// and best-effort pinned to a dedicated core.
type Pipeline struct {
	client    *Client
	ring      *ring.SPSC
	processor *Processor
	stats     *obs.Stats
	cfg       PipelineConfig

	running   atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	runErr    error
	runErrMu  sync.Mutex
}

// NewPipeline builds a Pipeline for one venue dialect, descriptor, and
// output Publisher (normally the Event Bus).
func NewPipeline(dialect *Dialect, desc SubscriptionDescriptor, pub Publisher, stats *obs.Stats, cfg PipelineConfig) *Pipeline {
	if cfg.RingSize <= 0 {
		cfg.RingSize = 4096
	}
	r := ring.New(cfg.RingSize)
	client := NewClient(dialect, r)
	client.Initialize(desc)
	processor := NewProcessor(r, dialect, pub, stats, WallClock)

	return &Pipeline{
		client:    client,
		ring:      r,
		processor: processor,
		stats:     stats,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the client, spawns the I/O and parser goroutines pinned
// to their configured cores, and returns once both are running.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	p.client.Start()

	p.wg.Add(2)
	started := make(chan struct{}, 2)

	go func() {
		defer p.wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		_ = pinCurrentThread(p.cfg.IOCore)
		started <- struct{}{}
		if err := p.client.Run(ctx); err != nil {
			p.setRunErr(err)
		}
	}()

	go func() {
		defer p.wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		_ = pinCurrentThread(p.cfg.ParserCore)
		started <- struct{}{}
		p.processor.Run(p.stopCh)
	}()

	<-started
	<-started
}

// Stop signals the processor to drain and exit, stops the client, then
// waits for both goroutines together. The parser goroutine is not joined
// before the client is stopped. Idempotent.
func (p *Pipeline) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	p.client.Stop()
	p.wg.Wait()
}

// Err returns the error the I/O goroutine's Run call terminated with,
// if any.
func (p *Pipeline) Err() error {
	p.runErrMu.Lock()
	defer p.runErrMu.Unlock()
	return p.runErr
}

func (p *Pipeline) setRunErr(err error) {
	p.runErrMu.Lock()
	p.runErr = err
	p.runErrMu.Unlock()
}

// Ring exposes the underlying SPSC ring for metrics (dropped-frame
// counts, occupancy).
func (p *Pipeline) Ring() *ring.SPSC {
	return p.ring
}
