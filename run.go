package pipef

import (
	"context"
	"time"
)

type runState string

const (
	StateIdle     runState = "IDLE"
	StateRunning  runState = "RUNNING"
	StateStopping runState = "STOPPING"
	StateStopped  runState = "STOPPED"
)

// Unbounded disables an iteration or duration limit.
const Unbounded = 0

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	maxTicks     int
	maxDuration  time.Duration
	tickInterval time.Duration
}

// WithMaxTicks limits the run to n ticks. Unbounded disables the limit.
func WithMaxTicks(n int) RunOption {
	return func(c *runConfig) {
		c.maxTicks = n
	}
}

// WithMaxDuration limits the run to d of wall-clock time, checked once
// per tick boundary. Unbounded disables the limit.
func WithMaxDuration(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.maxDuration = d
	}
}

// WithTickInterval pauses between ticks so pipelines polling slow
// external inputs do not spin. The pause is interruptible by Stop and
// context cancellation.
func WithTickInterval(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.tickInterval = d
	}
}

// runCursor tracks progress of the current run.
type runCursor struct {
	cfg      runConfig
	ctx      context.Context
	deadline time.Time
	ticks    int
	inited   int
}

// Run seals the graph and executes ticks until an iteration limit, a
// duration limit, a Stop request or ctx cancellation ends the run, or a
// node fails fatally. With no limits configured, Run blocks until Stop
// or ctx cancellation, both observed between ticks.
//
// Run returns nil after a limit or Stop ends the run, ctx.Err() after a
// cancellation and a *NodeError after a fatal node failure. A finished
// engine cannot run again.
func (e *Engine) Run(ctx context.Context, opts ...RunOption) error {
	if e.finished.Load() {
		return ErrEngineFinished
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return e.loop(&runCursor{cfg: cfg, ctx: ctx})
}

// Stop requests that the next tick boundary be the last. It is safe to
// call from any goroutine, idempotent and never fails.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// State transitions may only be done from within the loop.
func (e *Engine) loop(cur *runCursor) error {
	for {
		switch e.state {
		case StateIdle:
			e.handleIdle(cur)
		case StateRunning:
			e.handleRunning(cur)
		case StateStopping:
			e.handleStopping(cur)
		case StateStopped:
			e.finished.Store(true)
			return e.runErr
		}
	}
}

func (e *Engine) changeState(next runState) {
	e.log.V(1).Info("change state", "from", string(e.state), "to", string(next))
	e.state = next
}

// handleIdle seals and validates the graph, then initializes all nodes
// in creation order. An init failure closes the already-initialized
// prefix and aborts before the first tick.
func (e *Engine) handleIdle(cur *runCursor) {
	e.sealed.Store(true)

	if err := e.graph.validate(); err != nil {
		e.runErr = err
		e.changeState(StateStopped)
		return
	}
	if orphaned := e.graph.orphans(); len(orphaned) > 0 {
		e.log.Info("graph has nodes unreachable from any source", "nodes", orphaned)
	}

	for i, id := range e.graph.Order {
		if err := e.graph.Nodes[id].runtime.Init(); err != nil {
			if cerr := e.closeNodes(i); cerr != nil {
				e.log.Error(cerr, "errors closing nodes after failed init")
			}
			e.runErr = &NodeError{Node: id, Err: err}
			e.changeState(StateStopped)
			return
		}
		cur.inited = i + 1
	}

	if cur.cfg.maxDuration > Unbounded {
		cur.deadline = e.clk.Now().Add(cur.cfg.maxDuration)
	}

	e.metrics.observeRunning(true)
	e.changeState(StateRunning)
}

func (e *Engine) handleRunning(cur *runCursor) {
	select {
	case <-e.stopCh:
		e.changeState(StateStopping)
		return
	case <-cur.ctx.Done():
		e.runErr = cur.ctx.Err()
		e.changeState(StateStopping)
		return
	default:
	}

	if cur.cfg.maxTicks > Unbounded && cur.ticks >= cur.cfg.maxTicks {
		e.changeState(StateStopping)
		return
	}
	if !cur.deadline.IsZero() && !e.clk.Now().Before(cur.deadline) {
		e.changeState(StateStopping)
		return
	}

	if err := e.tick(cur.ctx); err != nil {
		e.runErr = err
		e.changeState(StateStopping)
		return
	}
	cur.ticks++
	e.metrics.observeTick()

	if cur.cfg.tickInterval > 0 {
		t := e.clk.Timer(cur.cfg.tickInterval)
		defer t.Stop()
		select {
		case <-t.C:
		case <-e.stopCh:
			e.changeState(StateStopping)
		case <-cur.ctx.Done():
			e.runErr = cur.ctx.Err()
			e.changeState(StateStopping)
		}
	}
}

// handleStopping finishes teardown: every initialized node is closed in
// reverse creation order. Close errors never mask a run error.
func (e *Engine) handleStopping(cur *runCursor) {
	if err := e.closeNodes(cur.inited); err != nil {
		if e.runErr == nil {
			e.runErr = err
		} else {
			e.log.Error(err, "errors closing nodes")
		}
	}
	e.metrics.observeRunning(false)
	e.changeState(StateStopped)
}
