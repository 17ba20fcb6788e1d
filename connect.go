package pipef

import (
	"fmt"

	"github.com/google/uuid"
)

// Connect wires the default port of from to the input of to. The
// payload types must match at compile time; the graph re-validates node
// kinds, duplicate links and recorded type signatures and reports
// violations as construction errors.
func Connect[T any](from Outlet[T], to Inlet[T]) error {
	return ConnectTagged(from, TagDefault, to)
}

// MustConnect is like Connect but panics on error.
func MustConnect[T any](from Outlet[T], to Inlet[T]) {
	must(Connect(from, to))
}

// ConnectTagged wires the port of from named by tag to the input of to.
// Only items the producing node directs to that tag travel the link: a
// filter's TagElse port carries non-matching items, a router's
// command-key ports carry matched items, a transformer's named ports
// carry whatever it passes to EmitTo.
func ConnectTagged[T any](from Outlet[T], tag string, to Inlet[T]) error {
	e := from.owner()
	if e != to.owner() {
		return fmt.Errorf("%w: cannot wire %s -> %s", ErrForeignNode, from.outletNode(), to.inletNode())
	}
	if err := e.link(from.outletNode(), tag, to.inletNode()); err != nil {
		return err
	}
	from.addDownstream(tag, to.inputPort())
	return nil
}

// MustConnectTagged is like ConnectTagged but panics on error.
func MustConnectTagged[T any](from Outlet[T], tag string, to Inlet[T]) {
	must(ConnectTagged(from, tag, to))
}

// ConnectMap wires from to to through an anonymous transformer applying
// fn, so call sites can inline a mapping without naming a node. The
// intermediate node gets a unique generated ID.
func ConnectMap[In, Out any](from Outlet[In], fn func(In) Out, to Inlet[Out]) error {
	e := from.owner()
	name := fmt.Sprintf("%s-map-%s", from.outletNode(), uuid.NewString()[:8])
	h, err := AddMap(e, name, fn)
	if err != nil {
		return err
	}
	if err := Connect[In](from, h); err != nil {
		return err
	}
	return Connect[Out](h, to)
}

// MustConnectMap is like ConnectMap but panics on error.
func MustConnectMap[In, Out any](from Outlet[In], fn func(In) Out, to Inlet[Out]) {
	must(ConnectMap(from, fn, to))
}
