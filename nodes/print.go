package nodes

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PrintSink writes every item to a designated stream, one per line.
// Wire one PrintSink per output stream and select between them with
// tagged links.
type PrintSink[T any] struct {
	w io.Writer
}

// NewPrintSink writes items to w.
func NewPrintSink[T any](w io.Writer) *PrintSink[T] {
	return &PrintSink[T]{w: w}
}

func (s *PrintSink[T]) Consume(ctx context.Context, item T) error {
	_, err := fmt.Fprintln(s.w, item)
	return err
}

// CollectSink records every item it consumes, in arrival order.
type CollectSink[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewCollectSink creates an empty CollectSink.
func NewCollectSink[T any]() *CollectSink[T] {
	return &CollectSink[T]{}
}

func (s *CollectSink[T]) Consume(ctx context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

// Items returns a copy of everything consumed so far.
func (s *CollectSink[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items consumed so far.
func (s *CollectSink[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
