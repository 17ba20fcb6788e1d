package pipef

import (
	"fmt"
	"reflect"
	"strings"
)

// NodeID is a strongly-typed identifier for graph nodes.
// NodeIDs must be non-empty and cannot contain whitespace.
type NodeID string

// Validate checks if the NodeID is valid.
// Returns ErrInvalidNodeID if the ID is empty or contains whitespace.
func (id NodeID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: NodeID cannot be empty", ErrInvalidNodeID)
	}
	if strings.ContainsAny(string(id), " \t\n\r") {
		return fmt.Errorf("%w: NodeID %q cannot contain whitespace", ErrInvalidNodeID, id)
	}
	return nil
}

// NodeKind is the capability of a node in the graph.
type NodeKind int

const (
	KindSource NodeKind = iota
	KindFilter
	KindTransformer
	KindRouter
	KindSink
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "Source"
	case KindFilter:
		return "Filter"
	case KindTransformer:
		return "Transformer"
	case KindRouter:
		return "Router"
	case KindSink:
		return "Sink"
	default:
		return "Unknown"
	}
}

// Port tags with a fixed meaning. TagDefault is the untagged output of
// every node. TagElse is the filter port that receives non-matching
// items when wired.
const (
	TagDefault = ""
	TagElse    = "else"
)

// Link is a directed edge from a tagged outlet to another node's input.
// Links are immutable once created.
type Link struct {
	From NodeID
	Tag  string
	To   NodeID
}

// graphNode is the build-time representation of a node. It carries only
// the metadata needed for validation; runtime behavior lives in the
// typed node implementations.
type graphNode struct {
	ID   NodeID
	Kind NodeKind

	Parents  []NodeID
	Children []NodeID

	// Type signatures for link checking. InType is nil for sources,
	// OutType is nil for sinks.
	InType  reflect.Type
	OutType reflect.Type

	runtime runtimeNode
}

// validateDownstream checks if this node can connect to the given child.
func (n *graphNode) validateDownstream(child *graphNode) error {
	if n.Kind == KindSink {
		return fmt.Errorf("%w: sink nodes cannot have children", ErrInvalidGraph)
	}
	if child.Kind == KindSource {
		return fmt.Errorf("%w: source nodes cannot be children", ErrInvalidGraph)
	}
	if n.OutType != child.InType {
		return fmt.Errorf("%w: %s outputs %v but %s expects %v",
			ErrTypeMismatch, n.ID, n.OutType, child.ID, child.InType)
	}
	return nil
}

// validateTag checks that tag names a port this node can actually emit
// on. Sources emit only on the default port. Filters emit on the
// default and else ports. Routers emit on command-key ports only;
// matched items never reach default-tag consumers. Transformers may
// emit on any port via EmitTo.
func (n *graphNode) validateTag(tag string) error {
	switch n.Kind {
	case KindSource:
		if tag != TagDefault {
			return fmt.Errorf("%w: source %s has no tagged ports (got %q)", ErrInvalidTag, n.ID, tag)
		}
	case KindFilter:
		if tag != TagDefault && tag != TagElse {
			return fmt.Errorf("%w: filter %s has only the default and %q ports (got %q)",
				ErrInvalidTag, n.ID, TagElse, tag)
		}
	case KindRouter:
		if tag == TagDefault {
			return fmt.Errorf("%w: router %s consumes matched items; wire a command-key port instead",
				ErrInvalidTag, n.ID)
		}
	}
	return nil
}

// graph is the build-time pipeline structure. It contains no runtime
// behavior beyond holding node references for lifecycle management.
type graph struct {
	Nodes map[NodeID]*graphNode

	// Insertion order. Sources are polled in this order.
	Order []NodeID

	Links []Link
}

func newGraph() *graph {
	return &graph{
		Nodes: make(map[NodeID]*graphNode),
		Order: make([]NodeID, 0),
		Links: make([]Link, 0),
	}
}

func (g *graph) addNode(node *graphNode) error {
	if err := node.ID.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrNodeAlreadyExists, node.ID)
	}
	g.Nodes[node.ID] = node
	g.Order = append(g.Order, node.ID)
	return nil
}

// addLink records a directed edge. Re-declaring an identical link is an
// error, not a no-op.
func (g *graph) addLink(from NodeID, tag string, to NodeID) error {
	parent, ok := g.Nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	child, ok := g.Nodes[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}

	if err := parent.validateTag(tag); err != nil {
		return err
	}
	if err := parent.validateDownstream(child); err != nil {
		return fmt.Errorf("cannot connect %s -> %s: %w", from, to, err)
	}

	for _, l := range g.Links {
		if l.From == from && l.Tag == tag && l.To == to {
			return fmt.Errorf("%w: %s -[%q]-> %s", ErrDuplicateLink, from, tag, to)
		}
	}

	g.Links = append(g.Links, Link{From: from, Tag: tag, To: to})
	parent.Children = append(parent.Children, to)
	child.Parents = append(child.Parents, from)
	return nil
}
