// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package ctllog holds helpers for inspecting controller events in tests.
package ctllog

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/controlpanel/ctlevent"
)

// Spy is a ctlevent.Logger that records every event it receives.
// It is safe for concurrent use.
type Spy struct {
	mu     sync.Mutex
	events []ctlevent.Event
	wake   chan struct{} // closed and replaced on every event
}

var _ ctlevent.Logger = (*Spy)(nil)

// LogEvent records e.
func (s *Spy) LogEvent(e ctlevent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	if s.wake != nil {
		close(s.wake)
		s.wake = nil
	}
}

// Events returns a copy of the recorded events.
func (s *Spy) Events() []ctlevent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]ctlevent.Event, len(s.events))
	copy(events, s.events)
	return events
}

// EventTypes returns the type names of the recorded events.
func (s *Spy) EventTypes() []string {
	events := s.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = reflect.TypeOf(e).Elem().Name()
	}
	return types
}

// Reset forgets all recorded events.
func (s *Spy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Len reports how many events have been recorded.
func (s *Spy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Await blocks until an event for which match returns true has been
// recorded, looking at past events first. It returns ctx.Err() if ctx ends
// first.
func (s *Spy) Await(ctx context.Context, match func(ctlevent.Event) bool) (ctlevent.Event, error) {
	return s.AwaitFrom(ctx, 0, match)
}

// AwaitFrom is Await ignoring the first from recorded events.
func (s *Spy) AwaitFrom(ctx context.Context, from int, match func(ctlevent.Event) bool) (ctlevent.Event, error) {
	seen := from
	for {
		s.mu.Lock()
		if seen > len(s.events) {
			seen = 0
		}
		fresh := append([]ctlevent.Event(nil), s.events[seen:]...)
		seen = len(s.events)
		if s.wake == nil {
			s.wake = make(chan struct{})
		}
		wake := s.wake
		s.mu.Unlock()

		for _, e := range fresh {
			if match(e) {
				return e, nil
			}
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AwaitType waits for the first event of type T. See Spy.Await.
func AwaitType[T ctlevent.Event](ctx context.Context, s *Spy) (T, error) {
	e, err := s.Await(ctx, func(e ctlevent.Event) bool {
		_, ok := e.(T)
		return ok
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return e.(T), nil
}

// Count returns how many recorded events are of type T.
func Count[T ctlevent.Event](s *Spy) int {
	n := 0
	for _, e := range s.Events() {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}
