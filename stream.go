package ragline

import (
	"strings"
	"sync"
)

// Streamer is a finite, non-restartable sequence of values. The consumer
// calls Next until it returns false, reading each value with Current.
// A producer-side failure is surfaced through Current after the last
// successful value; once Next has returned false the stream is exhausted.
// Closing a stream before it is exhausted abandons it: increments already
// read stay with the consumer and the rest are discarded.
type Streamer[T any] interface {
	Next() bool
	Current() (T, error)
	Close() error
}

// StreamPipe is the producer half of a Streamer. One goroutine sends values
// with Send and finishes by returning from the function passed to Go (or by
// calling Close); another consumes them through the Streamer interface.
type StreamPipe[T any] struct {
	ch   chan T
	done chan struct{}

	finishOnce sync.Once
	closeOnce  sync.Once

	mu      sync.Mutex
	err     error
	pending bool // an error is waiting to be delivered via Current

	cur T
}

// NewStreamPipe creates a pipe with a small send buffer.
func NewStreamPipe[T any]() *StreamPipe[T] {
	return &StreamPipe[T]{
		ch:   make(chan T, 16),
		done: make(chan struct{}),
	}
}

// Send delivers a value to the consumer, blocking until it is accepted.
// Once the stream has been closed the value is dropped instead, so a
// producer never blocks on (or panics into) an abandoned stream.
func (p *StreamPipe[T]) Send(v T) {
	select {
	case p.ch <- v:
	case <-p.done:
	}
}

// Go runs fn in a new goroutine and finishes the pipe when it returns. A
// non-nil error from fn is delivered to the consumer after the values sent
// so far.
func (p *StreamPipe[T]) Go(fn func() error) {
	go func() {
		if err := fn(); err != nil {
			p.fail(err)
		}
		p.finish()
	}()
}

func (p *StreamPipe[T]) fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// finish marks the producer side complete. Only the producer closes the
// value channel; the consumer side signals through done instead.
func (p *StreamPipe[T]) finish() {
	p.finishOnce.Do(func() { close(p.ch) })
}

// Close ends the stream. Safe to call more than once, from either side; a
// consumer calling it early abandons the remaining values, and the
// producer's subsequent Sends are dropped.
func (p *StreamPipe[T]) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Closed reports whether Close has been called.
func (p *StreamPipe[T]) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Next reports whether another value (or a terminal error) is available.
// Values already buffered are drained before a Close is honored.
func (p *StreamPipe[T]) Next() bool {
	select {
	case v, ok := <-p.ch:
		return p.advance(v, ok)
	default:
	}
	select {
	case v, ok := <-p.ch:
		return p.advance(v, ok)
	case <-p.done:
		return p.takeErr()
	}
}

func (p *StreamPipe[T]) advance(v T, ok bool) bool {
	if ok {
		p.cur = v
		return true
	}
	return p.takeErr()
}

func (p *StreamPipe[T]) takeErr() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil && !p.pending {
		p.pending = true
		return true
	}
	return false
}

// Current returns the value read by the last call to Next, or the producer's
// error once the values are exhausted.
func (p *StreamPipe[T]) Current() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		var zero T
		return zero, p.err
	}
	return p.cur, nil
}

// Collect drains a string stream and returns the concatenation of every
// increment. The stream is closed before returning.
func Collect(s Streamer[string]) (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		chunk, err := s.Current()
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
