// Package sink implements the downstream byte-stream destination a flush
// writes a serialized epoch to: a freshly spawned child process's stdin,
// per spec §6 ("the original spawns per flush").
package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	shellquote "github.com/kballard/go-shellquote"
)

// ChildProcess opens one child process per flush.Controller rotation,
// splitting Cmd into argv with shell-quoting rules (so a configured
// `stream_cmd` like `carbon-relay --host 127.0.0.1` behaves the way a
// shell would parse it) instead of a naive strings.Split.
type ChildProcess struct {
	Cmd string

	// Stderr, if set, receives the child's standard error for every
	// flush; defaults to the daemon's own stderr.
	Stderr io.Writer
}

// Open spawns a fresh child process, returning a writer onto its stdin and
// a wait function that blocks until the process exits. The returned
// writer must be closed (shutting the child's stdin) before wait is
// called, or the child may never see EOF and wait will hang.
func (c *ChildProcess) Open() (io.WriteCloser, func() error, error) {
	argv, err := shellquote.Split(c.Cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("sink: parsing stream_cmd %q: %w", c.Cmd, err)
	}
	if len(argv) == 0 {
		return nil, nil, fmt.Errorf("sink: stream_cmd is empty")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("sink: opening stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("sink: starting %q: %w", argv[0], err)
	}

	wait := func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("sink: %q: %w", c.Cmd, err)
		}
		return nil
	}
	return stdin, wait, nil
}

// Buffer is an in-memory SinkOpener for tests: each Open call returns a
// fresh buffer appended to Flushes once closed, with a no-op wait.
type Buffer struct {
	Flushes [][]byte

	cur *bytes.Buffer
}

type bufferWriteCloser struct {
	b     *Buffer
	inner *bytes.Buffer
}

func (w *bufferWriteCloser) Write(p []byte) (int, error) { return w.inner.Write(p) }

func (w *bufferWriteCloser) Close() error {
	w.b.Flushes = append(w.b.Flushes, w.inner.Bytes())
	return nil
}

func (b *Buffer) Open() (io.WriteCloser, func() error, error) {
	b.cur = &bytes.Buffer{}
	return &bufferWriteCloser{b: b, inner: b.cur}, func() error { return nil }, nil
}
