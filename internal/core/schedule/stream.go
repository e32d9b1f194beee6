package schedule

import (
	"context"
	"sync"
)

// Stream delivers run events from one producer to one consumer
//
// The channel holds a single slot. When the consumer lags, an unread event is replaced by
// the newer one; events are cumulative so only the latest matters. The producer never
// blocks, so a consumer that walks away does not stall the run. The terminal event always
// lands in the slot before the channel closes.
type Stream struct {
	ch   chan Event
	done chan struct{}

	mu    sync.Mutex
	final Event
}

func newStream() *Stream {
	return &Stream{ch: make(chan Event, 1), done: make(chan struct{})}
}

// Events is closed after the terminal event
func (s *Stream) Events() <-chan Event { return s.ch }

// Done is closed once the terminal event has been produced
func (s *Stream) Done() <-chan struct{} { return s.done }

// Final returns the terminal event; ok is false while the run is still going
func (s *Stream) Final() (Event, bool) {
	select {
	case <-s.done:
	default:
		return Event{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final, true
}

// Wait blocks until the terminal event or ctx is done
// it does not read Events so it can be used alongside a consumer
func (s *Stream) Wait(ctx context.Context) (Event, error) {
	select {
	case <-s.done:
		ev, _ := s.Final()
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (s *Stream) push(ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Stream) finish(ev Event) {
	s.mu.Lock()
	s.final = ev
	s.mu.Unlock()
	s.push(ev)
	close(s.ch)
	close(s.done)
}

// Finished returns a stream that already holds only the terminal event
func Finished(ev Event) *Stream {
	s := newStream()
	s.finish(ev)
	return s
}
