package pipef

import (
	"errors"
	"fmt"
)

// Sentinel errors reported at graph construction time. All of them are
// returned before the first tick runs; callers may inspect them with
// errors.Is and retry the wiring call.
var (
	ErrNodeAlreadyExists = errors.New("node already exists")
	ErrNodeNotFound      = errors.New("node not found")
	ErrInvalidNodeID     = errors.New("invalid node ID")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrDuplicateLink     = errors.New("duplicate link")
	ErrDuplicateHandler  = errors.New("duplicate handler")
	ErrInvalidTag        = errors.New("invalid tag")
	ErrCycleDetected     = errors.New("cycle detected in graph")
	ErrInvalidGraph      = errors.New("invalid graph")
	ErrGraphSealed       = errors.New("graph is sealed")
	ErrForeignNode       = errors.New("node belongs to a different engine")
)

// Run lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("engine is already running")
	ErrEngineFinished = errors.New("engine has finished; create a new engine to run again")
)

// fatalError marks an error as fatal to the whole run. It is detected
// anywhere in a wrapped chain via errors.As.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as fatal. A node callback that returns a fatal error
// aborts the current run; any other non-nil error is transient and only
// drops the item being processed.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err or anything it wraps was marked with Fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// NodeError is a fatal node failure surfaced by Run. Node identifies the
// source whose propagation failed; the wrapped error names the exact
// node that produced it.
type NodeError struct {
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Recovery determines how to handle a processing error.
type Recovery int

const (
	// RecoveryFail aborts the run (default for fatal errors).
	RecoveryFail Recovery = iota
	// RecoverySkip drops the item and continues with the next source.
	RecoverySkip
)

// ErrorHandler is consulted for every error a tick produces. It receives
// the error and the source node whose propagation failed, and returns
// the recovery action.
type ErrorHandler func(err error, node NodeID) Recovery

// DefaultErrorHandler skips transient errors and fails on fatal ones.
func DefaultErrorHandler() ErrorHandler {
	return func(err error, node NodeID) Recovery {
		if IsFatal(err) {
			return RecoveryFail
		}
		return RecoverySkip
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
