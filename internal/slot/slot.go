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

// Package slot provides a lock-guarded container for a value that is
// published by one goroutine and read by others.
package slot

import "sync"

// Slot holds either nothing or a single value of type T. The zero value of
// T stands for "nothing", so T is usually a pointer.
//
// All methods are safe for concurrent use. The lock is held only while the
// value is read or written, never while the caller works with it.
type Slot[T comparable] struct {
	mu sync.Mutex
	v  T
}

// Load returns the current value and whether the slot is occupied.
func (s *Slot[T]) Load() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	return s.v, s.v != zero
}

// CompareAndSwap stores new only if the slot currently holds old.
// It reports whether the swap happened.
func (s *Slot[T]) CompareAndSwap(old, new T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.v != old {
		return false
	}
	s.v = new
	return true
}
