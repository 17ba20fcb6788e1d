package nodes

import (
	"context"
	"errors"
	"io"
)

// ChunkSource emits fixed-size byte chunks from an io.Reader, one per
// tick: the shape of raw video frames, fixed records and similar
// framed inputs. The final chunk may be shorter. After end of input the
// source permanently reports "nothing available"; the application runs
// any end-of-stream flushing after Run returns.
//
// Reads block until a full chunk is available, so ChunkSource is meant
// for file-like readers with bounded latency, not sockets.
type ChunkSource struct {
	r    io.Reader
	size int
	done bool
}

// NewChunkSource reads chunks of size bytes from r.
func NewChunkSource(r io.Reader, size int) *ChunkSource {
	return &ChunkSource{r: r, size: size}
}

func (s *ChunkSource) Poll(ctx context.Context) ([]byte, bool, error) {
	if s.done {
		return nil, false, nil
	}

	buf := make([]byte, s.size)
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return buf, true, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		return buf[:n], true, nil
	case errors.Is(err, io.EOF):
		s.done = true
		return nil, false, nil
	default:
		s.done = true
		return nil, false, err
	}
}

func (s *ChunkSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriterSink writes byte items to an io.Writer.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink writes items to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Consume(ctx context.Context, item []byte) error {
	_, err := s.w.Write(item)
	return err
}
