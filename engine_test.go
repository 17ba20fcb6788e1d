package pipef

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/benbjohnson/clock"
)

// slicePoller emits a fixed sequence, then reports nothing available.
type slicePoller[T any] struct {
	items []T
	pos   int
	polls int
}

func (p *slicePoller[T]) Poll(ctx context.Context) (T, bool, error) {
	p.polls++
	var zero T
	if p.pos >= len(p.items) {
		return zero, false, nil
	}
	item := p.items[p.pos]
	p.pos++
	return item, true, nil
}

func appendSink[T any](dst *[]T) Consumer[T] {
	return ConsumerFunc[T](func(ctx context.Context, item T) error {
		*dst = append(*dst, item)
		return nil
	})
}

func TestRunDelivery(t *testing.T) {
	t.Run("InOrder", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"a", "b", "c"}})
		var got []string
		sink := MustAddSink(e, "sink", appendSink(&got))
		MustConnect[string](src, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(5)))
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("FanOutReachesEveryBranch", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1, 2}})
		var left, right []int
		l := MustAddSink(e, "left", appendSink(&left))
		r := MustAddSink(e, "right", appendSink(&right))
		MustConnect[int](src, l)
		MustConnect[int](src, r)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, []int{1, 2}, left)
		assert.Equal(t, []int{1, 2}, right)
	})

	t.Run("TransformerMultiEmit", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1, 2}})
		dup := MustAddTransformer(e, "dup", TransformFunc[int, int](func(ctx context.Context, item int, out *Emitter[int]) error {
			out.Emit(item)
			out.Emit(item * 10)
			return nil
		}))
		var got []int
		sink := MustAddSink(e, "sink", appendSink(&got))
		MustConnect[int](src, dup)
		MustConnect[int](dup, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, []int{1, 10, 2, 20}, got)
	})

	t.Run("EmitToNamedPort", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1, 100}})
		split := MustAddTransformer(e, "split", TransformFunc[int, int](func(ctx context.Context, item int, out *Emitter[int]) error {
			if item >= 10 {
				out.EmitTo("big", item)
			} else {
				out.Emit(item)
			}
			return nil
		}))
		var small, big []int
		smallSink := MustAddSink(e, "small", appendSink(&small))
		bigSink := MustAddSink(e, "big", appendSink(&big))
		MustConnect[int](src, split)
		MustConnect[int](split, smallSink)
		MustConnectTagged[int](split, "big", bigSink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, []int{1}, small)
		assert.Equal(t, []int{100}, big)
	})

	t.Run("ConnectMap", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{7, 8}})
		var got []string
		sink := MustAddSink(e, "sink", appendSink(&got))
		MustConnectMap[int, string](src, strconv.Itoa, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, []string{"7", "8"}, got)
	})

	t.Run("CounterCountsEveryItem", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"x", "y", "z"}})
		cnt := MustAddCounter[string](e, "count")
		MustConnect[string](src, cnt)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(5)))
		assert.Equal(t, int64(3), cnt.Count())
	})
}

func TestFilter(t *testing.T) {
	t.Run("AllowSetSplitsDefaultAndElse", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"a", "b", "z"}})
		flt := MustAddFilter(e, "allow", AllowSet("a", "b"))
		cnt := MustAddCounter[string](e, "matched")
		var rejected []string
		rej := MustAddSink(e, "rejected", appendSink(&rejected))
		MustConnect[string](src, flt)
		MustConnect[string](flt, cnt)
		MustConnectTagged[string](flt, TagElse, rej)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(5)))
		assert.Equal(t, int64(2), cnt.Count())
		assert.Equal(t, []string{"z"}, rejected)
	})

	t.Run("UnwiredElseDropsSilently", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"a", "z"}})
		flt := MustAddFilter(e, "allow", AllowSet("a"))
		var got []string
		sink := MustAddSink(e, "sink", appendSink(&got))
		MustConnect[string](src, flt)
		MustConnect[string](flt, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(4)))
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("DenySetInverts", func(t *testing.T) {
		pred := DenySet(1, 2)
		assert.False(t, pred(1))
		assert.True(t, pred(3))
	})
}

func TestRouter(t *testing.T) {
	t.Run("HandlerInvokedOncePerMatch", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"run"}})
		rtr := MustAddRouter(e, "cmd", SelfKey)
		MustConnect[string](src, rtr)

		var runCalls, quitCalls int
		rtr.MustHandle("run", func(ctx context.Context, item string) error {
			runCalls++
			return nil
		})
		rtr.MustHandle("quit", func(ctx context.Context, item string) error {
			quitCalls++
			return nil
		})

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, 1, runCalls)
		assert.Equal(t, 0, quitCalls)
	})

	t.Run("TaggedPortSeesOnlyMatchingKey", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"run", "quit"}})
		rtr := MustAddRouter(e, "cmd", SelfKey)
		var quits []string
		quitSink := MustAddSink(e, "quits", appendSink(&quits))
		MustConnect[string](src, rtr)
		MustConnectTagged[string](rtr, "quit", quitSink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(4)))
		assert.Equal(t, []string{"quit"}, quits)
	})

	t.Run("UnmatchedItemIsDropped", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"nope"}})
		rtr := MustAddRouter(e, "cmd", SelfKey)
		MustConnect[string](src, rtr)
		rtr.MustHandle("run", func(ctx context.Context, item string) error { return nil })

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
	})

	t.Run("FatalHandlerAbortsRun", func(t *testing.T) {
		e := New()
		src := MustAddSource[string](e, "src", &slicePoller[string]{items: []string{"boom"}})
		rtr := MustAddRouter(e, "cmd", SelfKey)
		MustConnect[string](src, rtr)
		rtr.MustHandle("boom", func(ctx context.Context, item string) error {
			return Fatal(errors.New("handler exploded"))
		})

		err := e.Run(context.Background(), WithMaxTicks(3))
		var nerr *NodeError
		assert.True(t, errors.As(err, &nerr))
		assert.Equal(t, NodeID("src"), nerr.Node)
		assert.True(t, IsFatal(err))
	})
}

func TestRunLimits(t *testing.T) {
	t.Run("MaxTicksIsExact", func(t *testing.T) {
		e := New()
		polls := 0
		src := MustAddSource[int](e, "src", PollerFunc[int](func(ctx context.Context) (int, bool, error) {
			polls++
			return polls, true, nil
		}))
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, 3, polls)
		assert.Equal(t, int64(3), cnt.Count())
	})

	t.Run("DurationLimitWithMockClock", func(t *testing.T) {
		mock := clock.NewMock()
		e := New(WithClock(mock))

		polls := 0
		src := MustAddSource[int](e, "src", PollerFunc[int](func(ctx context.Context) (int, bool, error) {
			polls++
			mock.Add(time.Second)
			return polls, true, nil
		}))
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		assert.NoError(t, e.Run(context.Background(), WithMaxDuration(3*time.Second)))
		assert.Equal(t, 3, polls)
		assert.Equal(t, int64(3), cnt.Count())
	})

	t.Run("TickIntervalDoesNotChangeTickCount", func(t *testing.T) {
		e := New()
		p := &slicePoller[int]{}
		src := MustAddSource[int](e, "src", p)
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		err := e.Run(context.Background(), WithMaxTicks(2), WithTickInterval(time.Millisecond))
		assert.NoError(t, err)
		assert.Equal(t, 2, p.polls)
	})
}

func TestStop(t *testing.T) {
	t.Run("StopFromAnotherGoroutineReturnsNil", func(t *testing.T) {
		e := New()
		started := make(chan struct{})
		var once bool
		src := MustAddSource[int](e, "src", PollerFunc[int](func(ctx context.Context) (int, bool, error) {
			if !once {
				once = true
				close(started)
			}
			return 0, false, nil
		}))
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		<-started
		e.Stop()
		assert.NoError(t, <-done)
	})

	t.Run("StopBeforeRunEndsItImmediately", func(t *testing.T) {
		e := New()
		p := &slicePoller[int]{items: []int{1}}
		src := MustAddSource[int](e, "src", p)
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		e.Stop()
		e.Stop() // idempotent

		assert.NoError(t, e.Run(context.Background()))
		assert.Equal(t, 0, p.polls)
	})

	t.Run("ContextCancellationSurfaces", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{})
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.IsError(t, e.Run(ctx), context.Canceled)
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("FinishedEngineCannotRunAgain", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{})
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(1)))
		assert.IsError(t, e.Run(context.Background()), ErrEngineFinished)
	})

	t.Run("ConcurrentRunRejected", func(t *testing.T) {
		e := New()
		started := make(chan struct{})
		release := make(chan struct{})
		var once bool
		src := MustAddSource[int](e, "src", PollerFunc[int](func(ctx context.Context) (int, bool, error) {
			if !once {
				once = true
				close(started)
				<-release
			}
			return 0, false, nil
		}))
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background()) }()

		<-started
		assert.IsError(t, e.Run(context.Background()), ErrAlreadyRunning)

		close(release)
		e.Stop()
		assert.NoError(t, <-done)
	})

	t.Run("GraphSealedAfterRun", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{})
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)
		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(1)))

		_, err := AddCounter[int](e, "late")
		assert.IsError(t, err, ErrGraphSealed)
		assert.IsError(t, Connect[int](src, cnt), ErrGraphSealed)
	})

	t.Run("InitAndCloseOrder", func(t *testing.T) {
		var events []string
		e := New()
		src := MustAddSource[int](e, "src", &lifecyclePoller{events: &events})
		sink := MustAddSink[int](e, "sink", &lifecycleConsumer{events: &events})
		MustConnect[int](src, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(1)))
		assert.Equal(t, []string{"init src", "init sink", "close sink", "close src"}, events)
	})

	t.Run("InitFailureClosesInitializedPrefix", func(t *testing.T) {
		var events []string
		e := New()
		src := MustAddSource[int](e, "src", &lifecyclePoller{events: &events})
		sink := MustAddSink[int](e, "sink", &lifecycleConsumer{events: &events, initErr: errors.New("no device")})
		MustConnect[int](src, sink)

		err := e.Run(context.Background())
		var nerr *NodeError
		assert.True(t, errors.As(err, &nerr))
		assert.Equal(t, NodeID("sink"), nerr.Node)
		assert.Equal(t, []string{"init src", "init sink", "close src"}, events)
	})
}

type lifecyclePoller struct {
	events *[]string
}

func (p *lifecyclePoller) Poll(ctx context.Context) (int, bool, error) { return 0, false, nil }

func (p *lifecyclePoller) Init() error {
	*p.events = append(*p.events, "init src")
	return nil
}

func (p *lifecyclePoller) Close() error {
	*p.events = append(*p.events, "close src")
	return nil
}

type lifecycleConsumer struct {
	events  *[]string
	initErr error
}

func (c *lifecycleConsumer) Consume(ctx context.Context, item int) error { return nil }

func (c *lifecycleConsumer) Init() error {
	*c.events = append(*c.events, "init sink")
	return c.initErr
}

func (c *lifecycleConsumer) Close() error {
	*c.events = append(*c.events, "close sink")
	return nil
}

func TestErrorHandling(t *testing.T) {
	t.Run("TransientErrorDropsItemAndContinues", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1, 2, 3}})
		var got []int
		sink := MustAddSink(e, "sink", ConsumerFunc[int](func(ctx context.Context, item int) error {
			if item == 2 {
				return errors.New("disk hiccup")
			}
			got = append(got, item)
			return nil
		}))
		MustConnect[int](src, sink)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(5)))
		assert.Equal(t, []int{1, 3}, got)
	})

	t.Run("FatalErrorAbortsRun", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1, 2, 3}})
		var got []int
		sink := MustAddSink(e, "sink", ConsumerFunc[int](func(ctx context.Context, item int) error {
			if item == 2 {
				return Fatal(errors.New("corrupt output"))
			}
			got = append(got, item)
			return nil
		}))
		MustConnect[int](src, sink)

		err := e.Run(context.Background(), WithMaxTicks(5))
		var nerr *NodeError
		assert.True(t, errors.As(err, &nerr))
		assert.Equal(t, NodeID("src"), nerr.Node)
		assert.Equal(t, []int{1}, got)
	})

	t.Run("PollErrorIsTransientByDefault", func(t *testing.T) {
		e := New()
		polls := 0
		src := MustAddSource[int](e, "src", PollerFunc[int](func(ctx context.Context) (int, bool, error) {
			polls++
			if polls == 1 {
				return 0, false, fmt.Errorf("flaky read")
			}
			return polls, true, nil
		}))
		cnt := MustAddCounter[int](e, "count")
		MustConnect[int](src, cnt)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(3)))
		assert.Equal(t, int64(2), cnt.Count())
	})

	t.Run("CustomHandlerCanFailOnTransient", func(t *testing.T) {
		e := New(WithErrorHandler(func(err error, node NodeID) Recovery {
			return RecoveryFail
		}))
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1}})
		sink := MustAddSink(e, "sink", ConsumerFunc[int](func(ctx context.Context, item int) error {
			return errors.New("any failure is fatal here")
		}))
		MustConnect[int](src, sink)

		err := e.Run(context.Background(), WithMaxTicks(3))
		var nerr *NodeError
		assert.True(t, errors.As(err, &nerr))
	})

	t.Run("FanOutTransientDoesNotStarveSiblings", func(t *testing.T) {
		e := New()
		src := MustAddSource[int](e, "src", &slicePoller[int]{items: []int{1}})
		bad := MustAddSink(e, "bad", ConsumerFunc[int](func(ctx context.Context, item int) error {
			return errors.New("always fails")
		}))
		var got []int
		good := MustAddSink(e, "good", appendSink(&got))
		MustConnect[int](src, bad)
		MustConnect[int](src, good)

		assert.NoError(t, e.Run(context.Background(), WithMaxTicks(2)))
		assert.Equal(t, []int{1}, got)
	})
}
