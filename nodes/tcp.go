package nodes

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// Exchange pairs an accepted connection with the request bytes read
// from it. Ownership moves with the item: whichever node consumes the
// Exchange is responsible for the connection, normally a TCPSink that
// writes the response and closes it.
type Exchange struct {
	Conn net.Conn
	Data []byte
}

// TCPSource accepts TCP connections and emits one Exchange per
// connection, carrying the first chunk of bytes the client sent.
// Connection accept and read happen on internal goroutines; Poll never
// blocks. The listener's lifecycle is entirely internal to the node.
type TCPSource struct {
	addr string

	ln     net.Listener
	ch     chan *Exchange
	grp    *errgroup.Group
	cancel context.CancelFunc

	readTimeout time.Duration
}

// NewTCPSource listens on addr (host:port) once the engine initializes
// the node. Pass ":0" style addresses to let the OS pick a port and
// read it back with Addr.
func NewTCPSource(addr string) *TCPSource {
	return &TCPSource{addr: addr, readTimeout: 500 * time.Millisecond}
}

func (s *TCPSource) Init() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.ch = make(chan *Exchange, 16)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	grp, ctx := errgroup.WithContext(ctx)
	s.grp = grp

	grp.Go(func() error {
		for {
			conn, err := s.ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
			grp.Go(func() error {
				s.readConn(ctx, conn)
				return nil
			})
		}
	})
	return nil
}

// readConn reads the client's first chunk and queues it. If the source
// is shutting down or the queue is full, the connection is dropped;
// backpressure is bounded by the channel capacity.
func (s *TCPSource) readConn(ctx context.Context, conn net.Conn) {
	buf := make([]byte, 64*1024)
	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		conn.Close()
		return
	}

	select {
	case s.ch <- &Exchange{Conn: conn, Data: buf[:n]}:
	case <-ctx.Done():
		conn.Close()
	}
}

func (s *TCPSource) Poll(ctx context.Context) (*Exchange, bool, error) {
	select {
	case ex := <-s.ch:
		return ex, true, nil
	default:
		return nil, false, nil
	}
}

// Addr returns the listener address. Valid only after the engine has
// initialized the node.
func (s *TCPSource) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *TCPSource) Close() error {
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.cancel()
	if werr := s.grp.Wait(); werr != nil && err == nil {
		err = werr
	}
	// Drop queued exchanges nobody will answer.
	for {
		select {
		case ex := <-s.ch:
			ex.Conn.Close()
		default:
			return err
		}
	}
}

// TCPSink writes an Exchange's payload back to its connection and
// closes it. Write failures are transient: the engine logs them and the
// run continues with the next item.
type TCPSink struct{}

// NewTCPSink creates a TCPSink.
func NewTCPSink() *TCPSink { return &TCPSink{} }

func (s *TCPSink) Consume(ctx context.Context, ex *Exchange) error {
	defer ex.Conn.Close()
	_, err := ex.Conn.Write(ex.Data)
	return err
}
