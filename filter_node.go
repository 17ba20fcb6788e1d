package pipef

import (
	"context"
	"fmt"
)

// Predicate decides whether a filter forwards an item. Matching items
// go out on the default port unchanged; non-matching items go to the
// TagElse port when wired, and are dropped otherwise.
type Predicate[T any] func(item T) bool

// AllowSet returns a Predicate that matches items that are members of
// the given set.
func AllowSet[T comparable](members ...T) Predicate[T] {
	set := make(map[T]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return func(item T) bool {
		_, ok := set[item]
		return ok
	}
}

// DenySet returns a Predicate that matches items that are not members
// of the given set.
func DenySet[T comparable](members ...T) Predicate[T] {
	allow := AllowSet(members...)
	return func(item T) bool { return !allow(item) }
}

type filterNode[T any] struct {
	id      NodeID
	pred    Predicate[T]
	outputs map[string][]input[T]
}

func (n *filterNode[T]) Receive(ctx context.Context, item T) error {
	tag := TagDefault
	if !n.pred(item) {
		tag = TagElse
	}
	if err := forwardAll(ctx, n.outputs[tag], item); err != nil {
		return fmt.Errorf("node %s: forward: %w", n.id, err)
	}
	return nil
}

func (n *filterNode[T]) addOutput(tag string, in input[T]) {
	n.outputs[tag] = append(n.outputs[tag], in)
}

func (n *filterNode[T]) Init() error  { return nil }
func (n *filterNode[T]) Close() error { return nil }

var _ input[any] = (*filterNode[any])(nil)
