package pipef

import (
	"context"
	"reflect"

	"github.com/hashicorp/go-multierror"
)

// runtimeNode is the type-erased lifecycle interface shared by every
// node implementation. It does not know about payload types, because it
// would otherwise need an unbounded number of generic parameters; the
// generics are hidden inside the concrete node types.
type runtimeNode interface {
	Init() error
	Close() error
}

// input is the typed receiving end of a link. It covers only the
// payload type of the link, without requiring the caller to know the
// receiving node's output types.
type input[T any] interface {
	Receive(ctx context.Context, item T) error
}

// pollable is implemented by source nodes. pollOnce polls the
// underlying Poller a single time and propagates a produced item
// depth-first through the node's links. It reports whether an item was
// produced.
type pollable interface {
	runtimeNode
	pollOnce(ctx context.Context) (bool, error)
}

// Initializer may be implemented by user-supplied node behaviors
// (Pollers, Transformers, Consumers). Init is called once, in node
// creation order, before the first tick.
type Initializer interface {
	Init() error
}

// Closer may be implemented by user-supplied node behaviors. Close is
// called once after the run, in reverse creation order.
type Closer interface {
	Close() error
}

func initBehavior(v any) error {
	if i, ok := v.(Initializer); ok {
		return i.Init()
	}
	return nil
}

func closeBehavior(v any) error {
	if c, ok := v.(Closer); ok {
		return c.Close()
	}
	return nil
}

// forwardAll delivers item to every downstream input in link
// registration order. Transient errors are collected so remaining
// fan-out branches still receive the item; a fatal error short-circuits
// because the run is over anyway.
func forwardAll[T any](ctx context.Context, outs []input[T], item T) error {
	var errs *multierror.Error
	for _, next := range outs {
		if err := next.Receive(ctx, item); err != nil {
			if IsFatal(err) {
				return err
			}
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
