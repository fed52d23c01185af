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

package ctlevent

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9001}
	someError := errors.New("some error")

	tests := []struct {
		name        string
		give        Event
		wantLevel   zapcore.Level
		wantMessage string
		wantFields  map[string]interface{}
	}{
		{
			name:        "Started",
			give:        &Started{Addr: addr, Address: "127.0.0.1:9001"},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "started",
			wantFields: map[string]interface{}{
				"addr": "127.0.0.1:9001",
			},
		},
		{
			name:        "StartError",
			give:        &Started{Address: "127.0.0.1:9001", Err: someError},
			wantLevel:   zapcore.ErrorLevel,
			wantMessage: "start failed",
			wantFields: map[string]interface{}{
				"address": "127.0.0.1:9001",
				"error":   "some error",
			},
		},
		{
			name:        "Exited",
			give:        &Exited{Addr: addr},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "server exited",
			wantFields: map[string]interface{}{
				"addr": "127.0.0.1:9001",
			},
		},
		{
			name:        "ExitedError",
			give:        &Exited{Addr: addr, Err: someError},
			wantLevel:   zapcore.ErrorLevel,
			wantMessage: "server exited",
			wantFields: map[string]interface{}{
				"addr":  "127.0.0.1:9001",
				"error": "some error",
			},
		},
		{
			name:        "StopRequested",
			give:        &StopRequested{RequestID: "r1", Caller: "main.run"},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "stop requested",
			wantFields: map[string]interface{}{
				"request": "r1",
				"caller":  "main.run",
			},
		},
		{
			name:        "Stopped",
			give:        &Stopped{RequestID: "r1", Addr: addr, Runtime: 3 * time.Millisecond},
			wantLevel:   zapcore.InfoLevel,
			wantMessage: "stopped",
			wantFields: map[string]interface{}{
				"request": "r1",
				"addr":    "127.0.0.1:9001",
				"runtime": "3ms",
				"forced":  false,
			},
		},
		{
			name:        "StoppedForced",
			give:        &Stopped{RequestID: "r1", Addr: addr, Runtime: time.Second, Forced: true},
			wantLevel:   zapcore.WarnLevel,
			wantMessage: "stopped",
			wantFields: map[string]interface{}{
				"request": "r1",
				"addr":    "127.0.0.1:9001",
				"runtime": "1s",
				"forced":  true,
			},
		},
		{
			name:        "StopFailed",
			give:        &Stopped{RequestID: "r1", Err: someError},
			wantLevel:   zapcore.WarnLevel,
			wantMessage: "stop failed",
			wantFields: map[string]interface{}{
				"request": "r1",
				"error":   "some error",
			},
		},
		{
			name:        "CompletionDropped",
			give:        &CompletionDropped{RequestID: "r1", Err: someError},
			wantLevel:   zapcore.WarnLevel,
			wantMessage: "stop outcome dropped",
			wantFields: map[string]interface{}{
				"request": "r1",
				"error":   "some error",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, observedLogs := observer.New(zap.DebugLevel)
			(&ZapLogger{Logger: zap.New(core)}).LogEvent(tt.give)

			logs := observedLogs.TakeAll()
			require.Len(t, logs, 1)
			got := logs[0]

			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantFields, got.ContextMap())
		})
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		NopLogger.LogEvent(&Started{})
	})
}
