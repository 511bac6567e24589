// Package pipeline runs one analysis request end to end: normalize the
// candidate, stage the working context, execute in the sandbox, process the
// output into content blocks and stream events to a gatherer.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal"
	"github.com/programme-lv/analyst/internal/artifact"
	"github.com/programme-lv/analyst/internal/classify"
	"github.com/programme-lv/analyst/internal/datastore"
	"github.com/programme-lv/analyst/internal/normalize"
	"github.com/programme-lv/analyst/internal/policy"
	"github.com/programme-lv/analyst/internal/resultproc"
	"github.com/programme-lv/analyst/internal/sandbox"
)

// Executor runs validated candidates. Satisfied by sandbox.Supervisor.
type Executor interface {
	Execute(ctx context.Context, req sandbox.Request) (*sandbox.Outcome, error)
	Cancel(correlationId string) bool
}

type Analyst struct {
	pol        *policy.Policy
	exec       Executor
	datastore  *datastore.DataStore
	artifacts  artifact.Store
	systemInfo string
}

func New(pol *policy.Policy, exec Executor, ds *datastore.DataStore, artifacts artifact.Store) *Analyst {
	return &Analyst{
		pol:        pol,
		exec:       exec,
		datastore:  ds,
		artifacts:  artifacts,
		systemInfo: getSystemInfo(),
	}
}

// Cancel terminates the running execution for the correlation id, if any.
func (a *Analyst) Cancel(correlationId string) bool {
	return a.exec.Cancel(correlationId)
}

// Submit processes one request to a terminal state, reporting every event to
// gath. The returned error covers infrastructure failures only; a rejected
// candidate or a failed execution is a normal, fully-reported outcome.
func (a *Analyst) Submit(ctx context.Context, gath internal.ResultGatherer, req api.ExecReq) error {
	gath.StartJob(a.systemInfo)

	cand := normalize.Normalize(req.RawText, a.pol)
	if cand.Rejected {
		gath.RejectCode(cand.Reason)
		gath.EmitBlocks([]api.ContentBlock{
			api.NewTextBlock(classify.Escape("Code was rejected: " + cand.Reason)),
		})
		gath.FinishJob(nil, false)
		return nil
	}

	contextDir := ""
	if len(req.Context) > 0 {
		if a.datastore == nil {
			return a.internalError(gath, fmt.Errorf("request has context files but no data store is configured"))
		}
		dir, err := a.datastore.Materialize(req.Context)
		if err != nil {
			return a.internalError(gath, fmt.Errorf("failed to stage working context: %w", err))
		}
		contextDir = dir
		defer os.RemoveAll(dir)
	}

	var lim api.Limits
	if req.Limits != nil {
		lim = *req.Limits
	}

	gath.StartExec()
	outcome, err := a.exec.Execute(ctx, sandbox.Request{
		CorrelationId: req.CorrelationId,
		Code:          prelude + cand.Source,
		CodeFname:     a.pol.CodeFname,
		ExecCmd:       a.pol.ExecCmd,
		ContextDir:    contextDir,
		WallMs:        a.pol.EffectiveWallMs(lim.WallMs),
		MemKiB:        a.pol.EffectiveMemKiB(lim.MemKiB),
		MaxOutputKiB:  a.pol.EffectiveMaxOutputKiB(lim.MaxOutputKiB),
	})
	if err != nil {
		return a.internalError(gath, fmt.Errorf("failed to execute candidate: %w", err))
	}
	if outcome.ScratchDir != "" {
		defer os.RemoveAll(outcome.ScratchDir)
	}

	gath.FinishExec(outcome.Status, runDataOf(outcome))

	blocks := resultproc.Process(outcome)
	blocks = a.resolveImages(ctx, blocks, req.SessionId, req.CorrelationId)
	gath.EmitBlocks(blocks)

	if outcome.Status != api.Success {
		gath.FailJob(outcome.Status, string(outcome.Stderr))
	}
	gath.FinishJob(nil, false)
	return nil
}

func (a *Analyst) internalError(gath internal.ResultGatherer, err error) error {
	msg := err.Error()
	gath.FinishJob(&msg, true)
	return err
}

// resolveImages uploads raw image payloads and replaces them with URLs. A
// failed upload degrades that one block to text; the rest of the sequence is
// kept as is.
func (a *Analyst) resolveImages(ctx context.Context, blocks []api.ContentBlock, sessionId string, correlationId string) []api.ContentBlock {
	for i, b := range blocks {
		if b.Kind != api.BlockImage || b.Image == nil || len(b.Image.Bytes) == 0 {
			continue
		}
		url, err := a.artifacts.StoreArtifact(ctx, b.Image.Bytes, sessionId, correlationId)
		if err != nil {
			blocks[i] = api.NewTextBlock(classify.Escape(
				fmt.Sprintf("[a chart was produced but could not be stored: %v]", err)))
			continue
		}
		blocks[i].Image.Url = url
		blocks[i].Raw = url
	}
	return blocks
}

func runDataOf(o *sandbox.Outcome) *api.RunData {
	return &api.RunData{
		Stdout:        string(o.Stdout),
		Stderr:        string(o.Stderr),
		ExitCode:      o.ExitCode,
		CpuMillis:     o.CpuMillis,
		WallMillis:    o.WallMillis,
		RamKiBytes:    o.MemKiBytes,
		ExitSignal:    o.ExitSignal,
		CgOomKilled:   o.Status == api.MemExceeded,
		IsolateStatus: o.IsolateStatus,
		IsolateMsg:    o.IsolateMsg,
	}
}

// uname -srm
func getSystemInfo() string {
	out, err := exec.Command("uname", "-srm").Output()
	if err != nil {
		return ""
	}
	return string(out)
}
