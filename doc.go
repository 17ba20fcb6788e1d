// Package pipef is a small in-process dataflow engine. Independently
// created processing nodes (sources, filters, transformers, command
// routers, sinks) are wired into a pipeline graph and driven by a
// bounded or unbounded run loop.
//
// # Overview
//
// An Engine owns every node created through it and the links between
// them. Construction happens in two phases:
//
//  1. Composition: register nodes with the generic Add* functions and
//     wire them with Connect, ConnectTagged and ConnectMap. All wiring
//     errors (duplicate node, duplicate link, invalid tag, payload type
//     mismatch) are reported synchronously at this stage.
//  2. Execution: Run seals the graph, validates it and ticks the engine
//     until an iteration limit, a duration limit, a Stop request or a
//     context cancellation ends the run.
//
// On each tick the engine polls every source in creation order. An item
// produced by a source is propagated depth-first along its links,
// through filters, transformers and routers, until it reaches sinks or
// is dropped. Propagation is synchronous and single-threaded: the side
// effects of one source's item complete before the next source is
// polled.
//
// # Type safety
//
// Node handles carry their payload types as generic parameters, so an
// incompatible link does not compile. The build-time graph additionally
// records reflect.Type signatures per node and re-checks every link,
// which keeps wiring mistakes through type-erased paths a construction
// error rather than a runtime one.
//
// # Basic usage
//
//	e := pipef.New()
//	src := pipef.MustAddSource(e, "keys", keyPoller)
//	flt := pipef.MustAddFilter(e, "letters", pipef.AllowSet('a', 'b'))
//	snk := pipef.MustAddSink(e, "print", printer)
//
//	pipef.MustConnect[rune](src, flt)
//	pipef.MustConnect[rune](flt, snk)
//
//	if err := e.Run(ctx, pipef.WithMaxTicks(100)); err != nil {
//	    // a node failed fatally
//	}
//
// A finished engine cannot be run again; create a new one instead.
//
// # Thread safety
//
// Composition and Run must happen on a single goroutine. Stop is the
// only method that is safe to call from other goroutines; it is
// idempotent and observed at the next tick boundary.
package pipef
