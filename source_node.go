package pipef

import (
	"context"
	"fmt"
)

// Poller produces items for a source node. Poll returns the next item,
// or ok=false when nothing is available this tick. Poll must not block
// unboundedly: if the underlying input has no data it returns promptly,
// so the run loop stays responsive to Stop and to the duration budget.
// Implementations that wrap real blocking I/O must buffer internally.
type Poller[T any] interface {
	Poll(ctx context.Context) (item T, ok bool, err error)
}

// PollerFunc adapts a function to the Poller interface.
type PollerFunc[T any] func(ctx context.Context) (T, bool, error)

func (f PollerFunc[T]) Poll(ctx context.Context) (T, bool, error) { return f(ctx) }

// sourceNode polls a user Poller and forwards produced items to all
// downstream inputs on the default port.
type sourceNode[T any] struct {
	id      NodeID
	poller  Poller[T]
	outputs map[string][]input[T]
}

func (n *sourceNode[T]) pollOnce(ctx context.Context) (bool, error) {
	item, ok, err := n.poller.Poll(ctx)
	if err != nil {
		return false, fmt.Errorf("node %s: poll: %w", n.id, err)
	}
	if !ok {
		return false, nil
	}
	return true, forwardAll(ctx, n.outputs[TagDefault], item)
}

func (n *sourceNode[T]) addOutput(tag string, in input[T]) {
	n.outputs[tag] = append(n.outputs[tag], in)
}

func (n *sourceNode[T]) Init() error  { return initBehavior(n.poller) }
func (n *sourceNode[T]) Close() error { return closeBehavior(n.poller) }

var _ pollable = (*sourceNode[any])(nil)
