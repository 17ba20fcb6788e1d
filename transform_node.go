package pipef

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Transformer turns an input item into zero or more output items.
// Implementations emit results through the Emitter; emitting nothing
// drops the item. Transformers must not retain cross-call mutable state
// unless explicitly stateful, in which case the invariant is documented
// on the implementation.
type Transformer[In, Out any] interface {
	Transform(ctx context.Context, item In, out *Emitter[Out]) error
}

// TransformFunc adapts a function to the Transformer interface.
type TransformFunc[In, Out any] func(ctx context.Context, item In, out *Emitter[Out]) error

func (f TransformFunc[In, Out]) Transform(ctx context.Context, item In, out *Emitter[Out]) error {
	return f(ctx, item, out)
}

// Emitter is the output side handed to a Transformer for one call. Emit
// delivers synchronously and depth-first: every downstream consumer of
// the emitted item completes before Emit returns. Transient delivery
// errors are collected and surfaced after the Transform call; a fatal
// error stops further emission.
type Emitter[Out any] struct {
	ctx     context.Context
	outputs map[string][]input[Out]
	errs    *multierror.Error
	fatal   error
}

// Emit forwards item on the default port.
func (em *Emitter[Out]) Emit(item Out) {
	em.EmitTo(TagDefault, item)
}

// EmitTo forwards item on the named port. Emitting to a port with no
// wired links drops the item.
func (em *Emitter[Out]) EmitTo(tag string, item Out) {
	if em.fatal != nil {
		return
	}
	for _, next := range em.outputs[tag] {
		if err := next.Receive(em.ctx, item); err != nil {
			if IsFatal(err) {
				em.fatal = err
				return
			}
			em.errs = multierror.Append(em.errs, err)
		}
	}
}

func (em *Emitter[Out]) drain() error {
	if em.fatal != nil {
		return em.fatal
	}
	return em.errs.ErrorOrNil()
}

type transformNode[In, Out any] struct {
	id          NodeID
	transformer Transformer[In, Out]
	outputs     map[string][]input[Out]
}

func (n *transformNode[In, Out]) Receive(ctx context.Context, item In) error {
	em := Emitter[Out]{ctx: ctx, outputs: n.outputs}
	if err := n.transformer.Transform(ctx, item, &em); err != nil {
		return fmt.Errorf("node %s: transform: %w", n.id, err)
	}
	if err := em.drain(); err != nil {
		return fmt.Errorf("node %s: forward: %w", n.id, err)
	}
	return nil
}

func (n *transformNode[In, Out]) addOutput(tag string, in input[Out]) {
	n.outputs[tag] = append(n.outputs[tag], in)
}

func (n *transformNode[In, Out]) Init() error  { return initBehavior(n.transformer) }
func (n *transformNode[In, Out]) Close() error { return closeBehavior(n.transformer) }

var _ input[any] = (*transformNode[any, any])(nil)
