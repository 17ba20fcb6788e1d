package pipef

import "context"

// AddSource registers a source node that polls p once per tick.
func AddSource[T any](e *Engine, name string, p Poller[T]) (*SourceHandle[T], error) {
	id := NodeID(name)
	n := &sourceNode[T]{id: id, poller: p, outputs: make(map[string][]input[T])}
	node := &graphNode{ID: id, Kind: KindSource, OutType: typeOf[T](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	e.sources = append(e.sources, n)
	e.sourceIDs = append(e.sourceIDs, id)
	return &SourceHandle[T]{id: id, e: e, node: n}, nil
}

// MustAddSource is like AddSource but panics on error.
func MustAddSource[T any](e *Engine, name string, p Poller[T]) *SourceHandle[T] {
	h, err := AddSource(e, name, p)
	must(err)
	return h
}

// AddTransformer registers a transformer node.
func AddTransformer[In, Out any](e *Engine, name string, t Transformer[In, Out]) (*TransformerHandle[In, Out], error) {
	id := NodeID(name)
	n := &transformNode[In, Out]{id: id, transformer: t, outputs: make(map[string][]input[Out])}
	node := &graphNode{ID: id, Kind: KindTransformer, InType: typeOf[In](), OutType: typeOf[Out](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	return &TransformerHandle[In, Out]{id: id, e: e, node: n}, nil
}

// MustAddTransformer is like AddTransformer but panics on error.
func MustAddTransformer[In, Out any](e *Engine, name string, t Transformer[In, Out]) *TransformerHandle[In, Out] {
	h, err := AddTransformer(e, name, t)
	must(err)
	return h
}

// Map returns a Transformer that applies fn to every item and emits the
// result on the default port.
func Map[In, Out any](fn func(In) Out) Transformer[In, Out] {
	return TransformFunc[In, Out](func(ctx context.Context, item In, out *Emitter[Out]) error {
		out.Emit(fn(item))
		return nil
	})
}

// MapErr is like Map for fallible functions. A returned error is
// transient: the item is dropped and the run continues.
func MapErr[In, Out any](fn func(In) (Out, error)) Transformer[In, Out] {
	return TransformFunc[In, Out](func(ctx context.Context, item In, out *Emitter[Out]) error {
		mapped, err := fn(item)
		if err != nil {
			return err
		}
		out.Emit(mapped)
		return nil
	})
}

// AddMap registers a transformer node applying fn to every item.
func AddMap[In, Out any](e *Engine, name string, fn func(In) Out) (*TransformerHandle[In, Out], error) {
	return AddTransformer(e, name, Map(fn))
}

// MustAddMap is like AddMap but panics on error.
func MustAddMap[In, Out any](e *Engine, name string, fn func(In) Out) *TransformerHandle[In, Out] {
	h, err := AddMap(e, name, fn)
	must(err)
	return h
}

// AddFilter registers a filter node. Items matching pred are forwarded
// unchanged on the default port; non-matching items go to the TagElse
// port when wired and are dropped otherwise.
func AddFilter[T any](e *Engine, name string, pred Predicate[T]) (*FilterHandle[T], error) {
	id := NodeID(name)
	n := &filterNode[T]{id: id, pred: pred, outputs: make(map[string][]input[T])}
	node := &graphNode{ID: id, Kind: KindFilter, InType: typeOf[T](), OutType: typeOf[T](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	return &FilterHandle[T]{id: id, e: e, node: n}, nil
}

// MustAddFilter is like AddFilter but panics on error.
func MustAddFilter[T any](e *Engine, name string, pred Predicate[T]) *FilterHandle[T] {
	h, err := AddFilter(e, name, pred)
	must(err)
	return h
}

// AddRouter registers a command router node. key extracts the command
// key an item is matched with; use SelfKey for string payloads.
func AddRouter[T any](e *Engine, name string, key KeyFunc[T]) (*RouterHandle[T], error) {
	id := NodeID(name)
	n := &routerNode[T]{
		id:      id,
		key:     key,
		table:   make(map[string]Handler[T]),
		outputs: make(map[string][]input[T]),
		log:     e.log,
	}
	node := &graphNode{ID: id, Kind: KindRouter, InType: typeOf[T](), OutType: typeOf[T](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	return &RouterHandle[T]{id: id, e: e, node: n}, nil
}

// MustAddRouter is like AddRouter but panics on error.
func MustAddRouter[T any](e *Engine, name string, key KeyFunc[T]) *RouterHandle[T] {
	h, err := AddRouter(e, name, key)
	must(err)
	return h
}

// AddSink registers a terminal sink node.
func AddSink[T any](e *Engine, name string, c Consumer[T]) (*SinkHandle[T], error) {
	id := NodeID(name)
	n := &sinkNode[T]{id: id, consumer: c}
	node := &graphNode{ID: id, Kind: KindSink, InType: typeOf[T](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	return &SinkHandle[T]{id: id, e: e, node: n}, nil
}

// MustAddSink is like AddSink but panics on error.
func MustAddSink[T any](e *Engine, name string, c Consumer[T]) *SinkHandle[T] {
	h, err := AddSink(e, name, c)
	must(err)
	return h
}

// AddCounter registers a sink node that counts the items it receives.
func AddCounter[T any](e *Engine, name string) (*CounterHandle[T], error) {
	id := NodeID(name)
	n := &counterNode[T]{id: id}
	node := &graphNode{ID: id, Kind: KindSink, InType: typeOf[T](), runtime: n}
	if err := e.register(node); err != nil {
		return nil, err
	}
	return &CounterHandle[T]{id: id, e: e, node: n}, nil
}

// MustAddCounter is like AddCounter but panics on error.
func MustAddCounter[T any](e *Engine, name string) *CounterHandle[T] {
	h, err := AddCounter[T](e, name)
	must(err)
	return h
}
