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
	"net"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is a Logger that writes events to Zap.
type ZapLogger struct {
	Logger *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// LogEvent logs the given event to the provided Zap logger.
func (l *ZapLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Started:
		if e.Err != nil {
			l.Logger.Error("start failed",
				zap.String("address", e.Address),
				zap.Error(e.Err))
		} else {
			l.Logger.Info("started", addrField(e.Addr))
		}
	case *Exited:
		if e.Err != nil {
			l.Logger.Error("server exited", addrField(e.Addr), zap.Error(e.Err))
		} else {
			l.Logger.Info("server exited", addrField(e.Addr))
		}
	case *StopRequested:
		l.Logger.Info("stop requested",
			zap.String("request", e.RequestID),
			zap.String("caller", e.Caller))
	case *Stopped:
		if e.Err != nil {
			l.Logger.Warn("stop failed",
				zap.String("request", e.RequestID),
				zap.Error(e.Err))
			return
		}
		level := zapcore.InfoLevel
		if e.Forced {
			level = zapcore.WarnLevel
		}
		l.Logger.Check(level, "stopped").Write(
			zap.String("request", e.RequestID),
			addrField(e.Addr),
			zap.String("runtime", e.Runtime.String()),
			zap.Bool("forced", e.Forced),
		)
	case *CompletionDropped:
		l.Logger.Warn("stop outcome dropped",
			zap.String("request", e.RequestID),
			zap.Error(e.Err))
	}
}

func addrField(addr net.Addr) zap.Field {
	if addr == nil {
		return zap.Skip()
	}
	return zap.Stringer("addr", addr)
}
