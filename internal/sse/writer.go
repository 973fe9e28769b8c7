package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Event names used on the chat stream.
const (
	EventInfo  = "info"
	EventChat  = "chat"
	EventDone  = "done"
	EventError = "error"
)

// DefaultBufferBytes bounds how much undelivered frame data one stream may
// queue before the client is declared too slow to keep.
const DefaultBufferBytes = 64 * 1024

const frameOverhead = len("event: \ndata: \n\n")

// ErrSlowClient reports that the client stopped draining the stream and the
// outbound buffer filled up.
var ErrSlowClient = errors.New("sse: client not draining stream")

// ErrClosed reports a Send after Close.
var ErrClosed = errors.New("sse: stream closed")

type frame struct {
	event string
	data  []byte
}

// Stream writes server-sent events to a single HTTP response. Producers call
// Send and finally Close from their own goroutines; Serve runs on the handler
// goroutine and owns the ResponseWriter.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu     sync.Mutex
	closed bool
	queued int64
	frames chan frame

	dead     chan struct{}
	deadOnce sync.Once
	deadErr  error
}

// NewStream prepares w for event streaming. The SSE headers commit with the
// first frame, so callers must finish all status-code decisions before the
// first Send.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("sse: response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &Stream{
		w:       w,
		flusher: flusher,
		frames:  make(chan frame, 256),
		dead:    make(chan struct{}),
	}, nil
}

// Send queues one event frame without blocking. It returns ErrSlowClient when
// the outbound buffer is full, and the serve loop's exit reason once the
// stream is dead.
func (s *Stream) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: marshal %s event: %w", event, err)
	}

	select {
	case <-s.dead:
		if s.deadErr != nil {
			return s.deadErr
		}
		return ErrClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	size := int64(len(event) + len(data) + frameOverhead)
	if s.queued+size > DefaultBufferBytes {
		return ErrSlowClient
	}
	select {
	case s.frames <- frame{event: event, data: data}:
		s.queued += size
		return nil
	default:
		return ErrSlowClient
	}
}

// Close marks the producer side finished. Serve drains whatever is already
// queued and then returns.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.frames)
}

// Serve writes queued frames to the response until the context ends, a write
// fails, or Close has been called and the queue is drained. It must run on
// the handler goroutine because the ResponseWriter is only valid there.
func (s *Stream) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.markDead(ctx.Err())
			return ctx.Err()
		case f, ok := <-s.frames:
			if !ok {
				s.markDead(nil)
				return nil
			}
			if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", f.event, f.data); err != nil {
				s.markDead(err)
				return err
			}
			s.flusher.Flush()
			s.mu.Lock()
			s.queued -= int64(len(f.event) + len(f.data) + frameOverhead)
			s.mu.Unlock()
		}
	}
}

func (s *Stream) markDead(err error) {
	s.deadOnce.Do(func() {
		s.deadErr = err
		close(s.dead)
	})
}
