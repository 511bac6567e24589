package sandbox

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a started isolate run. Stdout/stderr must be drained before
// Wait is called.
type Process struct {
	cmd          *exec.Cmd
	stdout       io.ReadCloser
	stderr       io.ReadCloser
	metaFilePath string
}

func (process *Process) Stdout() io.ReadCloser {
	return process.stdout
}

func (process *Process) Stderr() io.ReadCloser {
	return process.stderr
}

// Kill forcibly terminates the isolate wrapper and with it the worker.
// Safe to call more than once and concurrently with Wait.
func (process *Process) Kill() {
	if process.cmd.Process != nil {
		_ = process.cmd.Process.Kill()
	}
}

// Wait reaps the process and parses the isolate meta file. Isolate exits
// non-zero when the boxed program fails, so exec.ExitError is not an error
// here; the meta file carries the real verdict.
func (process *Process) Wait() (*Metrics, error) {
	err := process.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	metaFileBytes, err := os.ReadFile(process.metaFilePath)
	if err != nil {
		return nil, err
	}
	_ = os.Remove(process.metaFilePath)

	metrics, err := parseMetaFile(metaFileBytes)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

// outputBudget is the total captured-byte allowance of one execution, shared
// by every capture stream so stdout and stderr together stay under the limit.
type outputBudget struct {
	mu        sync.Mutex
	remaining int64
}

func newOutputBudget(max int64) *outputBudget {
	return &outputBudget{remaining: max}
}

// take reserves up to n bytes and returns how many were granted.
func (b *outputBudget) take(n int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		n = b.remaining
	}
	b.remaining -= n
	return n
}

// cappedBuffer collects stream bytes while the shared budget lasts. Writes
// past the budget are discarded (never failed, the pipe must keep draining)
// and the overflow callback fires exactly once.
type cappedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	budget     *outputBudget
	overflowed bool

	once       sync.Once
	onOverflow func()
}

func newCappedBuffer(budget *outputBudget, onOverflow func()) *cappedBuffer {
	return &cappedBuffer{budget: budget, onOverflow: onOverflow}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	granted := b.budget.take(int64(len(p)))

	b.mu.Lock()
	if granted > 0 {
		b.buf.Write(p[:granted])
	}
	over := granted < int64(len(p))
	if over {
		b.overflowed = true
	}
	b.mu.Unlock()

	if over && b.onOverflow != nil {
		b.once.Do(b.onOverflow)
	}
	return len(p), nil
}

func (b *cappedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out
}

func (b *cappedBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}
