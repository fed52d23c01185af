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

package main

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/controlpanel/internal/testutil"
	"go.uber.org/goleak"
)

// Hijacks the test binary so that tests can run main() as a subprocess
// instead of compiling the program and running it directly.
func TestMain(m *testing.M) {
	switch filepath.Base(os.Args[0]) {
	case "controlpanel":
		main()
		os.Exit(0)
	default:
		goleak.VerifyTestMain(m)
	}
}

// lockedBuffer is an io.Writer that can be read while a subprocess
// writes to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// command runs the test binary as controlpanel with args.
func command(t *testing.T, out *lockedBuffer, args ...string) *exec.Cmd {
	exe, err := os.Executable()
	require.NoError(t, err)

	w := io.MultiWriter(testutil.WriteSyncer{T: t}, out)
	cmd := exec.Command(exe, args...)
	cmd.Args[0] = "controlpanel"
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd
}

func TestServeCommandLifetime(t *testing.T) {
	var out lockedBuffer
	cmd := command(t, &out, "serve", "--address=127.0.0.1:0", "--lifetime=200ms")
	require.NoError(t, cmd.Run())

	logs := out.String()
	assert.Contains(t, logs, "started")
	assert.Contains(t, logs, "lifetime elapsed")
	assert.Contains(t, logs, "stopped")
	assert.Contains(t, logs, "server exited")
}

func TestServeCommandSignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM cannot be delivered on Windows")
	}

	var out lockedBuffer
	cmd := command(t, &out, "serve", "--address=127.0.0.1:0", "--lifetime=0", "--log-format=json")
	require.NoError(t, cmd.Start())

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte(`"msg":"started"`))
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	require.NoError(t, cmd.Wait())

	logs := out.String()
	assert.Contains(t, logs, `"msg":"interrupted"`)
	assert.Contains(t, logs, `"msg":"server exited"`)
}

func TestServeCommandInvalidConfig(t *testing.T) {
	var out lockedBuffer
	err := command(t, &out, "serve", "--grace-period=0s").Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out.String(), "Config.GracePeriod")
}
