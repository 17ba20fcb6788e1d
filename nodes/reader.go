package nodes

import (
	"bufio"
	"context"
	"io"
)

type readItem[T any] struct {
	val T
	err error
}

// LineSource emits the lines of an io.Reader, one per tick. At end of
// input it permanently reports "nothing available". If r implements
// io.Closer it is closed when the node is torn down, which also
// unblocks the internal reader goroutine.
type LineSource struct {
	r  io.Reader
	ch chan readItem[string]
}

// NewLineSource wraps r. Reading starts when the engine initializes the
// node, not at construction.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

func (s *LineSource) Init() error {
	s.ch = make(chan readItem[string], 64)
	go func() {
		defer close(s.ch)
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			s.ch <- readItem[string]{val: sc.Text()}
		}
		if err := sc.Err(); err != nil {
			s.ch <- readItem[string]{err: err}
		}
	}()
	return nil
}

func (s *LineSource) Poll(ctx context.Context) (string, bool, error) {
	select {
	case item, ok := <-s.ch:
		if !ok {
			return "", false, nil
		}
		if item.err != nil {
			return "", false, item.err
		}
		return item.val, true, nil
	default:
		return "", false, nil
	}
}

func (s *LineSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RuneSource emits the runes of an io.Reader, one per tick. Behavior at
// end of input and on teardown matches LineSource.
type RuneSource struct {
	r  io.Reader
	ch chan readItem[rune]
}

// NewRuneSource wraps r.
func NewRuneSource(r io.Reader) *RuneSource {
	return &RuneSource{r: r}
}

func (s *RuneSource) Init() error {
	s.ch = make(chan readItem[rune], 256)
	go func() {
		defer close(s.ch)
		br := bufio.NewReader(s.r)
		for {
			r, _, err := br.ReadRune()
			if err != nil {
				if err != io.EOF {
					s.ch <- readItem[rune]{err: err}
				}
				return
			}
			s.ch <- readItem[rune]{val: r}
		}
	}()
	return nil
}

func (s *RuneSource) Poll(ctx context.Context) (rune, bool, error) {
	select {
	case item, ok := <-s.ch:
		if !ok {
			return 0, false, nil
		}
		if item.err != nil {
			return 0, false, item.err
		}
		return item.val, true, nil
	default:
		return 0, false, nil
	}
}

func (s *RuneSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
