package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/policy"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrAlreadyRunning is returned when a correlation id already has a live
	// worker. Duplicate requests are rejected, never queued.
	ErrAlreadyRunning = errors.New("an execution with this correlation id is already running")
	// ErrPoolFull is returned in fail-fast admission mode when all worker
	// slots are taken.
	ErrPoolFull = errors.New("worker pool is full")
)

// Request is one validated execution request. Code must already have passed
// normalization.
type Request struct {
	CorrelationId string
	Code          string
	CodeFname     string
	ExecCmd       string

	// Host directory with the working context, mounted read-only. Empty for
	// no context.
	ContextDir string

	WallMs       int64
	MemKiB       int64
	MaxOutputKiB int64
}

// Outcome is the terminal result of one execution. Produced exactly once per
// request. ScratchDir is a host directory with the artifacts the worker
// wrote; the caller owns its removal.
type Outcome struct {
	Status api.ExecStatus

	Stdout []byte
	Stderr []byte

	ScratchDir string

	ExitCode   int64
	ExitSignal *int64

	CpuMillis  int64
	WallMillis int64
	MemKiBytes int64

	IsolateStatus *string
	IsolateMsg    *string
}

// kill reasons, first recorded transition wins
const (
	killNone int32 = iota
	killTimeout
	killCancel
	killOutput
)

type execution struct {
	cancelCh   chan struct{}
	cancelOnce sync.Once
}

// Supervisor runs validated candidates in isolate boxes under a bounded
// worker pool. One live execution per correlation id; many correlation ids
// concurrently.
type Supervisor struct {
	pol     *policy.Policy
	isolate *Isolate
	running *xsync.MapOf[string, *execution]
	sem     *semaphore.Weighted
}

func NewSupervisor(pol *policy.Policy) *Supervisor {
	return &Supervisor{
		pol:     pol,
		isolate: GetIsolate(),
		running: xsync.NewMapOf[string, *execution](),
		sem:     semaphore.NewWeighted(int64(pol.PoolSize)),
	}
}

// Cancel forcibly terminates the running execution for the correlation id.
// Safe to call concurrently with natural completion; returns false when
// nothing is running under that id.
func (s *Supervisor) Cancel(correlationId string) bool {
	exn, ok := s.running.Load(correlationId)
	if !ok {
		return false
	}
	exn.cancelOnce.Do(func() { close(exn.cancelCh) })
	return true
}

// Execute runs the request to a terminal state and blocks until then. It
// never retries; a failed execution is the caller's to deal with.
func (s *Supervisor) Execute(ctx context.Context, req Request) (*Outcome, error) {
	exn := &execution{cancelCh: make(chan struct{})}
	if _, loaded := s.running.LoadOrStore(req.CorrelationId, exn); loaded {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Delete(req.CorrelationId)

	if s.pol.Admission == policy.AdmissionFailFast {
		if !s.sem.TryAcquire(1) {
			return nil, ErrPoolFull
		}
	} else {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	defer s.sem.Release(1)

	return s.run(req, exn)
}

func (s *Supervisor) run(req Request, exn *execution) (*Outcome, error) {
	box, err := s.isolate.NewBox()
	if err != nil {
		return nil, fmt.Errorf("failed to create isolate box: %w", err)
	}
	defer func() {
		_ = box.Close()
	}()

	if err := box.AddFile(req.CodeFname, []byte(req.Code)); err != nil {
		return nil, fmt.Errorf("failed to add code to box: %w", err)
	}

	scratch, err := box.ScratchDir()
	if err != nil {
		return nil, err
	}

	constraints := Constraints{
		WallTimeLimInSec: float64(req.WallMs) / 1000.0,
		MemoryLimitInKB:  req.MemKiB,
		MaxProcesses:     DefaultConstraints().MaxProcesses,
		MaxOpenFiles:     DefaultConstraints().MaxOpenFiles,
		MaxFileSizeKB:    DefaultConstraints().MaxFileSizeKB,
		ContextMount:     req.ContextDir,
	}

	process, err := box.Run(req.ExecCmd, &constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	var killReason atomic.Int32

	// one budget for both streams, so combined capture stays under the limit
	budget := newOutputBudget(req.MaxOutputKiB * 1024)
	onOverflow := func() {
		killReason.CompareAndSwap(killNone, killOutput)
		process.Kill()
	}
	stdout := newCappedBuffer(budget, onOverflow)
	stderr := newCappedBuffer(budget, onOverflow)

	// The isolate wall-time limit should fire first; this deadline is the
	// backstop for a hung isolate itself.
	deadline := time.Duration(req.WallMs)*time.Millisecond + 2*time.Second
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-timer.C:
			killReason.CompareAndSwap(killNone, killTimeout)
			process.Kill()
		case <-exn.cancelCh:
			killReason.CompareAndSwap(killNone, killCancel)
			process.Kill()
		}
	}()

	capture := errgroup.Group{}
	capture.Go(func() error {
		_, err := io.Copy(stdout, process.Stdout())
		return err
	})
	capture.Go(func() error {
		_, err := io.Copy(stderr, process.Stderr())
		return err
	})
	// Pipe errors past a kill are expected; captured bytes stay valid.
	_ = capture.Wait()

	metrics, err := process.Wait()
	close(done)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for worker: %w", err)
	}

	exported, err := exportScratch(scratch)
	if err != nil {
		return nil, fmt.Errorf("failed to export scratch dir: %w", err)
	}

	outcome := &Outcome{
		Status:     verdict(killReason.Load(), metrics),
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
		ScratchDir: exported,
		ExitCode:   metrics.ExitCode,
		ExitSignal: metrics.ExitSignal,
		CpuMillis:  int64(metrics.TimeSec * 1000),
		WallMillis: int64(metrics.TimeWallSec * 1000),
		MemKiBytes: metrics.CgMemKb,
	}
	if metrics.Status != "" {
		st := metrics.Status
		outcome.IsolateStatus = &st
	}
	if metrics.Message != "" {
		msg := metrics.Message
		outcome.IsolateMsg = &msg
	}
	fillTimeoutWall(outcome, req.WallMs)
	return outcome, nil
}

// fillTimeoutWall substitutes the requested wall limit when a backstop kill
// left no measured wall time in the meta file.
func fillTimeoutWall(outcome *Outcome, limitMs int64) {
	if outcome.Status == api.Timeout && outcome.WallMillis == 0 {
		outcome.WallMillis = limitMs
	}
}

func verdict(killReason int32, metrics *Metrics) api.ExecStatus {
	switch killReason {
	case killTimeout:
		return api.Timeout
	case killCancel:
		return api.Cancelled
	case killOutput:
		return api.OutputExceeded
	}
	switch {
	case metrics.Status == "TO":
		return api.Timeout
	case metrics.CgOomKilled:
		return api.MemExceeded
	case metrics.Status == "XX":
		return api.InternalError
	case metrics.Status == "SG" || metrics.Status == "RE" || metrics.ExitCode != 0:
		return api.RuntimeError
	}
	return api.Success
}

// exportScratch copies worker artifacts out of the box before cleanup so the
// result processor can resolve file markers after the box is gone.
func exportScratch(scratch string) (string, error) {
	out, err := os.MkdirTemp("", "analyst-artifacts-*")
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(scratch, entry.Name()))
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(out, entry.Name()), data, 0644); err != nil {
			return "", err
		}
	}
	return out, nil
}
