package pipef

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// KeyFunc extracts the command key a router matches against its table.
type KeyFunc[T any] func(item T) string

// SelfKey is the identity KeyFunc for string payloads.
func SelfKey(item string) string { return item }

// Handler is a command handler invoked by a router for a matched item.
// Invocation is fire-and-forget with respect to the data flow: the
// handler's side effects happen, but the router never forwards a
// transformed item onward.
type Handler[T any] func(ctx context.Context, item T) error

// routerNode matches an item's key against its command table. A matched
// item invokes the registered handler exactly once and is additionally
// forwarded along any links wired to the port named after the key.
// Items with no handler and no matching port are dropped.
type routerNode[T any] struct {
	id      NodeID
	key     KeyFunc[T]
	table   map[string]Handler[T]
	outputs map[string][]input[T]
	log     logr.Logger
}

func (n *routerNode[T]) Receive(ctx context.Context, item T) error {
	key := n.key(item)

	handler, ok := n.table[key]
	if !ok && len(n.outputs[key]) == 0 {
		n.log.V(1).Info("dropping unrouted item", "node", n.id, "key", key)
		return nil
	}

	if ok {
		if err := handler(ctx, item); err != nil {
			return fmt.Errorf("node %s: handler %q: %w", n.id, key, err)
		}
	}

	if err := forwardAll(ctx, n.outputs[key], item); err != nil {
		return fmt.Errorf("node %s: forward: %w", n.id, err)
	}
	return nil
}

func (n *routerNode[T]) setHandler(key string, h Handler[T]) error {
	if key == "" {
		return fmt.Errorf("%w: command key cannot be empty", ErrInvalidTag)
	}
	if _, exists := n.table[key]; exists {
		return fmt.Errorf("%w: key %q on node %s", ErrDuplicateHandler, key, n.id)
	}
	n.table[key] = h
	return nil
}

func (n *routerNode[T]) addOutput(tag string, in input[T]) {
	n.outputs[tag] = append(n.outputs[tag], in)
}

func (n *routerNode[T]) Init() error  { return nil }
func (n *routerNode[T]) Close() error { return nil }

var _ input[any] = (*routerNode[any])(nil)
