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

// Package ctlreflect names the code that calls into a Controller.
package ctlreflect

import (
	"runtime"
	"strings"
)

// Frames from these prefixes are never reported as the caller, unless they
// come from a test file.
var ignoredPrefixes = []string{
	"go.uber.org/controlpanel/internal/ctlreflect.",
	"go.uber.org/controlpanel.(*Controller).",
}

// Caller returns the name of the first function on the stack outside the
// Controller's own methods, or "n/a".
func Caller() string {
	// Ascend at most 8 frames.
	pcs := make([]uintptr, 8)

	// Don't include runtime.Callers.
	n := runtime.Callers(1, pcs)
	if n == 0 {
		return "n/a"
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !shouldIgnoreFrame(f) {
			return f.Function
		}
		if !more {
			return "n/a"
		}
	}
}

func shouldIgnoreFrame(f runtime.Frame) bool {
	if strings.HasSuffix(f.File, "_test.go") {
		return false
	}
	for _, prefix := range ignoredPrefixes {
		if strings.HasPrefix(f.Function, prefix) {
			return true
		}
	}
	return false
}
