package pipef

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
)

// Engine owns a pipeline graph and drives its execution. All nodes are
// created through the engine, live for its lifetime and are torn down
// when the run ends. See the package documentation for the composition
// and execution model.
type Engine struct {
	log        logr.Logger
	clk        clock.Clock
	errHandler ErrorHandler
	metrics    *engineMetrics

	graph     *graph
	sources   []pollable
	sourceIDs []NodeID

	sealed   atomic.Bool
	running  atomic.Bool
	finished atomic.Bool

	// state and runErr are owned by the goroutine executing Run.
	state  runState
	runErr error

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates an engine with an empty graph.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:    logr.Discard(),
		clk:    clock.New(),
		graph:  newGraph(),
		state:  StateIdle,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.errHandler == nil {
		e.errHandler = DefaultErrorHandler()
	}
	return e
}

// register adds a node to the build-time graph.
func (e *Engine) register(node *graphNode) error {
	if e.sealed.Load() {
		return fmt.Errorf("%w: cannot add node %s after run start", ErrGraphSealed, node.ID)
	}
	return e.graph.addNode(node)
}

// link records an edge in the build-time graph. The caller wires the
// runtime inputs only after link succeeds, so graph bookkeeping and
// runtime wiring cannot diverge.
func (e *Engine) link(from NodeID, tag string, to NodeID) error {
	if e.sealed.Load() {
		return fmt.Errorf("%w: cannot wire %s -> %s after run start", ErrGraphSealed, from, to)
	}
	return e.graph.addLink(from, tag, to)
}

func (e *Engine) checkUnsealed() error {
	if e.sealed.Load() {
		return ErrGraphSealed
	}
	return nil
}

// tick polls every source in creation order and fully propagates each
// produced item before moving to the next source. This ordering is what
// makes command-handler and counter pipelines deterministic.
func (e *Engine) tick(ctx context.Context) error {
	for i, src := range e.sources {
		id := e.sourceIDs[i]
		produced, err := src.pollOnce(ctx)
		if produced {
			e.metrics.observeItem(id)
		}
		if err == nil {
			continue
		}
		if e.errHandler(err, id) == RecoverySkip {
			e.log.Error(err, "dropping item after node error", "source", id)
			e.metrics.observeTransient()
			continue
		}
		return &NodeError{Node: id, Err: err}
	}
	return nil
}

// closeNodes closes the first n registered nodes in reverse creation
// order, aggregating errors.
func (e *Engine) closeNodes(n int) error {
	var errs *multierror.Error
	for i := n - 1; i >= 0; i-- {
		id := e.graph.Order[i]
		if err := e.graph.Nodes[id].runtime.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("close node %s: %w", id, err))
		}
	}
	return errs.ErrorOrNil()
}
