// Package nodes provides ready-made boundary nodes for pipef pipelines:
// sources that wrap real, potentially blocking inputs (readers, TCP
// listeners, filesystem watchers) behind the engine's non-blocking Poll
// contract, and sinks that write items to streams, writers and network
// connections.
//
// Sources in this package buffer internally: a goroutine performs the
// blocking reads and hands items to Poll through a channel, so Poll
// returns "nothing" promptly when no data is available and the run loop
// stays responsive.
package nodes
