package pipef

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Consumer is the terminal stage of a pipeline. Consume records, prints
// or persists the item. Recoverable failures should be returned as
// plain errors: the engine logs them and continues; only Fatal errors
// abort the run.
type Consumer[T any] interface {
	Consume(ctx context.Context, item T) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc[T any] func(ctx context.Context, item T) error

func (f ConsumerFunc[T]) Consume(ctx context.Context, item T) error { return f(ctx, item) }

type sinkNode[T any] struct {
	id       NodeID
	consumer Consumer[T]
}

func (n *sinkNode[T]) Receive(ctx context.Context, item T) error {
	if err := n.consumer.Consume(ctx, item); err != nil {
		return fmt.Errorf("node %s: consume: %w", n.id, err)
	}
	return nil
}

func (n *sinkNode[T]) Init() error  { return initBehavior(n.consumer) }
func (n *sinkNode[T]) Close() error { return closeBehavior(n.consumer) }

var _ input[any] = (*sinkNode[any])(nil)

// counterNode is a sink that only counts the items it receives. The
// count is readable at any time, including while a run is in progress.
type counterNode[T any] struct {
	id    NodeID
	count atomic.Int64
}

func (n *counterNode[T]) Receive(ctx context.Context, item T) error {
	n.count.Add(1)
	return nil
}

func (n *counterNode[T]) Init() error  { return nil }
func (n *counterNode[T]) Close() error { return nil }

var _ input[any] = (*counterNode[any])(nil)
