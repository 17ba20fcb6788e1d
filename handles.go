package pipef

// Outlet is the producing side of a link carrying items of type T. It
// is satisfied by source, filter, transformer and router handles.
// Implementations live in this package only.
type Outlet[T any] interface {
	outletNode() NodeID
	addDownstream(tag string, in input[T])
	owner() *Engine
}

// Inlet is the consuming side of a link carrying items of type T. It is
// satisfied by filter, transformer, router, sink and counter handles.
type Inlet[T any] interface {
	inletNode() NodeID
	inputPort() input[T]
	owner() *Engine
}

// SourceHandle is a non-owning reference to a source node, valid for
// wiring and inspection only. The engine owns the node itself.
type SourceHandle[T any] struct {
	id   NodeID
	e    *Engine
	node *sourceNode[T]
}

func (h *SourceHandle[T]) ID() NodeID                            { return h.id }
func (h *SourceHandle[T]) outletNode() NodeID                    { return h.id }
func (h *SourceHandle[T]) addDownstream(tag string, in input[T]) { h.node.addOutput(tag, in) }
func (h *SourceHandle[T]) owner() *Engine                        { return h.e }

// TransformerHandle is a non-owning reference to a transformer node.
type TransformerHandle[In, Out any] struct {
	id   NodeID
	e    *Engine
	node *transformNode[In, Out]
}

func (h *TransformerHandle[In, Out]) ID() NodeID                              { return h.id }
func (h *TransformerHandle[In, Out]) inletNode() NodeID                       { return h.id }
func (h *TransformerHandle[In, Out]) inputPort() input[In]                    { return h.node }
func (h *TransformerHandle[In, Out]) outletNode() NodeID                      { return h.id }
func (h *TransformerHandle[In, Out]) addDownstream(tag string, in input[Out]) { h.node.addOutput(tag, in) }
func (h *TransformerHandle[In, Out]) owner() *Engine                          { return h.e }

// FilterHandle is a non-owning reference to a filter node.
type FilterHandle[T any] struct {
	id   NodeID
	e    *Engine
	node *filterNode[T]
}

func (h *FilterHandle[T]) ID() NodeID                            { return h.id }
func (h *FilterHandle[T]) inletNode() NodeID                     { return h.id }
func (h *FilterHandle[T]) inputPort() input[T]                   { return h.node }
func (h *FilterHandle[T]) outletNode() NodeID                    { return h.id }
func (h *FilterHandle[T]) addDownstream(tag string, in input[T]) { h.node.addOutput(tag, in) }
func (h *FilterHandle[T]) owner() *Engine                        { return h.e }

// RouterHandle is a non-owning reference to a command router node.
type RouterHandle[T any] struct {
	id   NodeID
	e    *Engine
	node *routerNode[T]
}

func (h *RouterHandle[T]) ID() NodeID                            { return h.id }
func (h *RouterHandle[T]) inletNode() NodeID                     { return h.id }
func (h *RouterHandle[T]) inputPort() input[T]                   { return h.node }
func (h *RouterHandle[T]) outletNode() NodeID                    { return h.id }
func (h *RouterHandle[T]) addDownstream(tag string, in input[T]) { h.node.addOutput(tag, in) }
func (h *RouterHandle[T]) owner() *Engine                        { return h.e }

// Handle registers a command handler for the exact-match key.
// Registering the same key twice is rejected with ErrDuplicateHandler.
// Registration is part of composition and fails once the graph is
// sealed.
func (h *RouterHandle[T]) Handle(key string, handler Handler[T]) error {
	if err := h.e.checkUnsealed(); err != nil {
		return err
	}
	return h.node.setHandler(key, handler)
}

// MustHandle is like Handle but panics on error.
func (h *RouterHandle[T]) MustHandle(key string, handler Handler[T]) {
	must(h.Handle(key, handler))
}

// SinkHandle is a non-owning reference to a sink node.
type SinkHandle[T any] struct {
	id   NodeID
	e    *Engine
	node *sinkNode[T]
}

func (h *SinkHandle[T]) ID() NodeID          { return h.id }
func (h *SinkHandle[T]) inletNode() NodeID   { return h.id }
func (h *SinkHandle[T]) inputPort() input[T] { return h.node }
func (h *SinkHandle[T]) owner() *Engine      { return h.e }

// CounterHandle is a non-owning reference to a counter node.
type CounterHandle[T any] struct {
	id   NodeID
	e    *Engine
	node *counterNode[T]
}

func (h *CounterHandle[T]) ID() NodeID          { return h.id }
func (h *CounterHandle[T]) inletNode() NodeID   { return h.id }
func (h *CounterHandle[T]) inputPort() input[T] { return h.node }
func (h *CounterHandle[T]) owner() *Engine      { return h.e }

// Count returns a snapshot of the number of items the counter has
// received. Safe to call at any time.
func (h *CounterHandle[T]) Count() int64 { return h.node.count.Load() }
